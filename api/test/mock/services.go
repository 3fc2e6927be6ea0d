// test/mock/services.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/argus/api/model"
)

// MockAuditService is a mock implementation of service.IAuditService
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Initiate(ctx context.Context, key model.AuditKey, initiator string) (*model.Audit, error) {
	args := m.Called(ctx, key, initiator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Audit), args.Error(1)
}

func (m *MockAuditService) GetAudit(ctx context.Context, key model.AuditKey) (*model.Audit, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Audit), args.Error(1)
}

func (m *MockAuditService) ListAudits(ctx context.Context, app string, limit, offset int) ([]*model.Audit, error) {
	args := m.Called(ctx, app, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Audit), args.Error(1)
}

func (m *MockAuditService) ListRecords(ctx context.Context, key model.AuditKey, src model.Source) ([]model.AccessRecord, error) {
	args := m.Called(ctx, key, src)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AccessRecord), args.Error(1)
}

func (m *MockAuditService) RecordDecision(ctx context.Context, key model.RecordKey, status model.SignOffStatus, actor, comment string) (*model.AccessRecord, error) {
	args := m.Called(ctx, key, status, actor, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessRecord), args.Error(1)
}

func (m *MockAuditService) SyncData(ctx context.Context, key model.AuditKey) (*model.ReconciliationStats, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconciliationStats), args.Error(1)
}

func (m *MockAuditService) RefreshData(ctx context.Context, key model.AuditKey, actor string) (*model.ReconciliationStats, error) {
	args := m.Called(ctx, key, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconciliationStats), args.Error(1)
}

func (m *MockAuditService) AdvanceProgress(ctx context.Context, key model.AuditKey, target string, actor string) (*model.Audit, error) {
	args := m.Called(ctx, key, target, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Audit), args.Error(1)
}

func (m *MockAuditService) Complete(ctx context.Context, key model.AuditKey, actor string) (*model.Audit, error) {
	args := m.Called(ctx, key, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Audit), args.Error(1)
}

func (m *MockAuditService) Purge(ctx context.Context, key model.AuditKey, actor string) error {
	args := m.Called(ctx, key, actor)
	return args.Error(0)
}

// MockRBACService is a mock implementation of service.IRBACService
type MockRBACService struct {
	mock.Mock
}

func (m *MockRBACService) Authorize(ctx context.Context, app, username string, permission model.Permission) (bool, error) {
	args := m.Called(ctx, app, username, permission)
	return args.Bool(0), args.Error(1)
}

func (m *MockRBACService) RequirePermission(ctx context.Context, app, username string, permission model.Permission) error {
	args := m.Called(ctx, app, username, permission)
	return args.Error(0)
}

func (m *MockRBACService) AssignRole(ctx context.Context, app, username string, role model.Role, actor string) error {
	args := m.Called(ctx, app, username, role, actor)
	return args.Error(0)
}

func (m *MockRBACService) RemoveRole(ctx context.Context, app, username string, role model.Role, actor string) error {
	args := m.Called(ctx, app, username, role, actor)
	return args.Error(0)
}

func (m *MockRBACService) ListRoles(ctx context.Context, app, username string) ([]model.Role, error) {
	args := m.Called(ctx, app, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Role), args.Error(1)
}

// MockReconciliationService is a mock implementation of service.IReconciliationService
type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) Sync(ctx context.Context, key model.AuditKey) (*model.ReconciliationStats, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconciliationStats), args.Error(1)
}

func (m *MockReconciliationService) Refresh(ctx context.Context, key model.AuditKey, actor string) (*model.ReconciliationStats, error) {
	args := m.Called(ctx, key, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconciliationStats), args.Error(1)
}

func (m *MockReconciliationService) Stats(ctx context.Context, key model.AuditKey) (*model.ReconciliationStats, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconciliationStats), args.Error(1)
}

// test/mock/dao.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/argus/api/model"
)

// MockAuditDAO is a mock implementation of dao.IAuditDAO
type MockAuditDAO struct {
	mock.Mock
}

func (m *MockAuditDAO) CreateAudit(ctx context.Context, audit model.Audit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

func (m *MockAuditDAO) GetAudit(ctx context.Context, key model.AuditKey) (*model.Audit, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Audit), args.Error(1)
}

func (m *MockAuditDAO) ListAudits(ctx context.Context, app string, limit, offset int) ([]*model.Audit, error) {
	args := m.Called(ctx, app, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Audit), args.Error(1)
}

func (m *MockAuditDAO) UpdateProgress(ctx context.Context, key model.AuditKey, progress model.Progress, status model.AuditStatus) error {
	args := m.Called(ctx, key, progress, status)
	return args.Error(0)
}

func (m *MockAuditDAO) UpdateAuditTicket(ctx context.Context, key model.AuditKey, ticketKey, status string) error {
	args := m.Called(ctx, key, ticketKey, status)
	return args.Error(0)
}

func (m *MockAuditDAO) SetCompleted(ctx context.Context, key model.AuditKey, actor string, at time.Time) error {
	args := m.Called(ctx, key, actor, at)
	return args.Error(0)
}

func (m *MockAuditDAO) DeleteAudit(ctx context.Context, key model.AuditKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockRecordDAO is a mock implementation of dao.IRecordDAO
type MockRecordDAO struct {
	mock.Mock
}

func (m *MockRecordDAO) ReplaceFreshSnapshot(ctx context.Context, key model.AuditKey, records []model.FreshRecord) error {
	args := m.Called(ctx, key, records)
	return args.Error(0)
}

func (m *MockRecordDAO) SeedPendingFromFresh(ctx context.Context, key model.AuditKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockRecordDAO) DeleteAuthoritative(ctx context.Context, key model.AuditKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockRecordDAO) GetRecord(ctx context.Context, key model.RecordKey) (*model.AccessRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessRecord), args.Error(1)
}

func (m *MockRecordDAO) UpdateDecision(ctx context.Context, key model.RecordKey, status model.SignOffStatus, actor, comment string, clearTicket bool, decidedAt time.Time) error {
	args := m.Called(ctx, key, status, actor, comment, clearTicket, decidedAt)
	return args.Error(0)
}

func (m *MockRecordDAO) UpdateRecordTicket(ctx context.Context, key model.RecordKey, ticketKey, status string) error {
	args := m.Called(ctx, key, ticketKey, status)
	return args.Error(0)
}

func (m *MockRecordDAO) ListRecords(ctx context.Context, key model.AuditKey, src model.Source) ([]model.AccessRecord, error) {
	args := m.Called(ctx, key, src)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AccessRecord), args.Error(1)
}

func (m *MockRecordDAO) ListFresh(ctx context.Context, key model.AuditKey) ([]model.FreshRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FreshRecord), args.Error(1)
}

func (m *MockRecordDAO) ListTicketedRecords(ctx context.Context, key model.AuditKey) ([]model.AccessRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AccessRecord), args.Error(1)
}

func (m *MockRecordDAO) ListManualEntries(ctx context.Context, app, frequency, period string) ([]model.FreshRecord, error) {
	args := m.Called(ctx, app, frequency, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FreshRecord), args.Error(1)
}

// MockRoleDAO is a mock implementation of dao.IRoleDAO
type MockRoleDAO struct {
	mock.Mock
}

func (m *MockRoleDAO) AssignRole(ctx context.Context, assignment model.RoleAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockRoleDAO) RemoveRole(ctx context.Context, app, username string, role model.Role) error {
	args := m.Called(ctx, app, username, role)
	return args.Error(0)
}

func (m *MockRoleDAO) ListRoles(ctx context.Context, app, username string) ([]model.Role, error) {
	args := m.Called(ctx, app, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Role), args.Error(1)
}

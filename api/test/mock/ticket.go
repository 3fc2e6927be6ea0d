// test/mock/ticket.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/argus/api/model"
	"github.com/dev-mohitbeniwal/argus/api/ticket"
)

// MockTicketClient is a mock implementation of ticket.Client
type MockTicketClient struct {
	mock.Mock
}

func (m *MockTicketClient) CreateIssue(ctx context.Context, fields map[string]interface{}) (*ticket.Issue, error) {
	args := m.Called(ctx, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Issue), args.Error(1)
}

func (m *MockTicketClient) GetIssue(ctx context.Context, key string) (*ticket.Issue, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Issue), args.Error(1)
}

func (m *MockTicketClient) AddComment(ctx context.Context, key, body string) error {
	args := m.Called(ctx, key, body)
	return args.Error(0)
}

func (m *MockTicketClient) LinkIssues(ctx context.Context, inwardKey, outwardKey, linkType string) error {
	args := m.Called(ctx, inwardKey, outwardKey, linkType)
	return args.Error(0)
}

func (m *MockTicketClient) FieldKinds(ctx context.Context) (map[string]ticket.FieldKind, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]ticket.FieldKind), args.Error(1)
}

// MockSynchronizer is a mock implementation of service.TicketSynchronizer
type MockSynchronizer struct {
	mock.Mock
}

func (m *MockSynchronizer) CreateAuditTicket(ctx context.Context, audit *model.Audit) (string, error) {
	args := m.Called(ctx, audit)
	return args.String(0), args.Error(1)
}

func (m *MockSynchronizer) CreateRecordTicket(ctx context.Context, record *model.AccessRecord, parentTicket string) (string, error) {
	args := m.Called(ctx, record, parentTicket)
	return args.String(0), args.Error(1)
}

func (m *MockSynchronizer) PollStatuses(ctx context.Context, key model.AuditKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

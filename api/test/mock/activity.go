// test/mock/activity.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/argus/api/activity"
)

// MockActivityService is a mock implementation of activity.Service
type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) Record(ctx context.Context, event activity.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockActivityService) QueryEvents(ctx context.Context, query activity.Query) ([]activity.Event, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]activity.Event), args.Error(1)
}

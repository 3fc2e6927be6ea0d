// test/mock/source.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/argus/api/model"
)

// MockAdapter is a mock implementation of source.Adapter
type MockAdapter struct {
	mock.Mock
	SourceName model.Source
}

func (m *MockAdapter) Name() model.Source {
	return m.SourceName
}

func (m *MockAdapter) FetchSnapshot(ctx context.Context, app, frequency, period string) ([]model.FreshRecord, error) {
	args := m.Called(ctx, app, frequency, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FreshRecord), args.Error(1)
}

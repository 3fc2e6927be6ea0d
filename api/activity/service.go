// api/activity/service.go
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Service interface {
	Record(ctx context.Context, event Event) error
	QueryEvents(ctx context.Context, query Query) ([]Event, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Record(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return s.repo.Append(ctx, event)
}

func (s *service) QueryEvents(ctx context.Context, query Query) ([]Event, error) {
	if query.Limit <= 0 {
		query.Limit = 50
	}
	return s.repo.Query(ctx, query)
}

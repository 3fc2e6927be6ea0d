// api/activity/service_test.go
package activity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dev-mohitbeniwal/argus/api/activity"
)

type fakeRepository struct {
	appended  []activity.Event
	lastQuery activity.Query
}

func (f *fakeRepository) Append(ctx context.Context, event activity.Event) error {
	f.appended = append(f.appended, event)
	return nil
}

func (f *fakeRepository) Query(ctx context.Context, query activity.Query) ([]activity.Event, error) {
	f.lastQuery = query
	return f.appended, nil
}

func TestRecordFillsIdentityAndTimestamp(t *testing.T) {
	repo := &fakeRepository{}
	svc := activity.NewService(repo)

	err := svc.Record(context.Background(), activity.Event{
		Kind:        activity.AuditInitiated,
		Application: "payments",
		Actor:       "owner1",
	})
	assert.NoError(t, err)
	assert.Len(t, repo.appended, 1)
	assert.NotEmpty(t, repo.appended[0].ID)
	assert.False(t, repo.appended[0].Timestamp.IsZero())
}

func TestRecordKeepsCallerSuppliedIdentity(t *testing.T) {
	repo := &fakeRepository{}
	svc := activity.NewService(repo)

	err := svc.Record(context.Background(), activity.Event{
		ID:          "fixed-id",
		Kind:        activity.AccessApproved,
		Application: "payments",
		Actor:       "reviewer1",
	})
	assert.NoError(t, err)
	assert.Equal(t, "fixed-id", repo.appended[0].ID)
}

func TestQueryEventsAppliesDefaultLimit(t *testing.T) {
	repo := &fakeRepository{}
	svc := activity.NewService(repo)

	_, err := svc.QueryEvents(context.Background(), activity.Query{Application: "payments"})
	assert.NoError(t, err)
	assert.Equal(t, 50, repo.lastQuery.Limit)

	_, err = svc.QueryEvents(context.Background(), activity.Query{Application: "payments", Limit: 10})
	assert.NoError(t, err)
	assert.Equal(t, 10, repo.lastQuery.Limit)
}

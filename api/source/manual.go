// api/source/manual.go
package source

import (
	"context"
	"time"

	"github.com/dev-mohitbeniwal/argus/api/model"
)

// EntryStore reads staged manual entries. File-upload parsing happens outside
// the engine; uploads land in the staging table this store reads from.
type EntryStore interface {
	ListManualEntries(ctx context.Context, app, frequency, period string) ([]model.FreshRecord, error)
}

// ManualAdapter surfaces operator-uploaded grants as a snapshot source so the
// reconciliation engine can treat manual data like any other identity source.
type ManualAdapter struct {
	store EntryStore
}

func NewManualAdapter(store EntryStore) *ManualAdapter {
	return &ManualAdapter{store: store}
}

func (a *ManualAdapter) Name() model.Source {
	return model.SourceManual
}

func (a *ManualAdapter) FetchSnapshot(ctx context.Context, app, frequency, period string) ([]model.FreshRecord, error) {
	records, err := a.store.ListManualEntries(ctx, app, frequency, period)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range records {
		records[i].Source = model.SourceManual
		if records[i].FetchedAt.IsZero() {
			records[i].FetchedAt = now
		}
	}
	return records, nil
}

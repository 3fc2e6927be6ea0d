// api/source/adapter.go
package source

import (
	"context"

	"github.com/dev-mohitbeniwal/argus/api/model"
)

// Adapter pulls a point-in-time snapshot of access grants from one identity
// source. FetchSnapshot performs no local writes; the reconciliation engine
// treats every adapter uniformly regardless of transport.
type Adapter interface {
	Name() model.Source
	FetchSnapshot(ctx context.Context, app, frequency, period string) ([]model.FreshRecord, error)
}

// Entry is the wire shape adapters receive from a source. A populated
// service-account identifier classifies the row as a service-account record;
// a populated account identifier classifies it as a group-access record. A
// source that wants a row in both categories emits two rows.
type Entry struct {
	AccountID        string `json:"account_id"`
	ServiceAccountID string `json:"service_account_id"`
	Role             string `json:"role"`
	Manager          string `json:"manager"`
	Delegate         string `json:"delegate"`
}

// Classify converts a wire entry into a fresh snapshot row, or nil when the
// entry carries no usable identifier.
func Classify(entry Entry, src model.Source, app, frequency, period string) *model.FreshRecord {
	record := model.FreshRecord{
		Application: app,
		Frequency:   frequency,
		Period:      period,
		Source:      src,
		Role:        entry.Role,
		Manager:     entry.Manager,
		Delegate:    entry.Delegate,
	}
	switch {
	case entry.ServiceAccountID != "":
		record.Kind = model.KindServiceAccount
		record.AccountID = entry.ServiceAccountID
	case entry.AccountID != "":
		record.Kind = model.KindGroupAccess
		record.AccountID = entry.AccountID
	default:
		return nil
	}
	return &record
}

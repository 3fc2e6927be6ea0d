// api/activity/model.go
package activity

import "time"

// EventKind enumerates every state transition and decision the ledger records.
type EventKind string

const (
	AuditInitiated              EventKind = "AUDIT_INITIATED"
	AuditDataRefreshed          EventKind = "AUDIT_DATA_REFRESHED"
	AuditProgressUpdated        EventKind = "AUDIT_PROGRESS_UPDATED"
	AuditFinalSignoffCompleted  EventKind = "AUDIT_FINAL_SIGNOFF_COMPLETED"
	AuditSummaryGenerated       EventKind = "AUDIT_SUMMARY_GENERATED"
	AuditCompleted              EventKind = "AUDIT_COMPLETED"
	AuditPurged                 EventKind = "AUDIT_PURGED"
	AccessApproved              EventKind = "ACCESS_APPROVED"
	AccessRevoked               EventKind = "ACCESS_REVOKED"
	RoleAssigned                EventKind = "ROLE_ASSIGNED"
	RoleRemoved                 EventKind = "ROLE_REMOVED"
)

// Event is one immutable, append-only ledger entry. Application-level events
// (e.g. role changes) carry no frequency or period.
type Event struct {
	ID             string    `json:"id"`
	Kind           EventKind `json:"kind"`
	Application    string    `json:"application"`
	Frequency      string    `json:"frequency,omitempty"`
	Period         string    `json:"period,omitempty"`
	AccountID      string    `json:"account_id,omitempty"`
	Actor          string    `json:"actor"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Query filters the ledger. Frequency/period filters are inclusive of events
// that carry no frequency/period, so application-scoped events appear in any
// period's timeline.
type Query struct {
	Application string
	Frequency   string
	Period      string
	Limit       int
	Offset      int
}

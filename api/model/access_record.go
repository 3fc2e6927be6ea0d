// api/model/access_record.go
package model

import "time"

// Source is the identity system an access record was pulled from.
type Source string

const (
	SourceDirectoryGroup   Source = "directory-group"
	SourceCodeHost         Source = "code-host"
	SourceDirectoryService Source = "directory-service"
	SourceManual           Source = "manual"
)

var AllSources = []Source{
	SourceDirectoryGroup,
	SourceCodeHost,
	SourceDirectoryService,
	SourceManual,
}

// RecordKind distinguishes human group grants from non-human credentials.
type RecordKind string

const (
	KindGroupAccess    RecordKind = "group_access"
	KindServiceAccount RecordKind = "service_account"
)

// SignOffStatus is the reviewer decision recorded against an access record.
type SignOffStatus string

const (
	SignOffPending  SignOffStatus = "pending"
	SignOffApproved SignOffStatus = "approved"
	SignOffRejected SignOffStatus = "rejected"
)

// AccessRecord is one row of the authoritative review table. A record with a
// populated service-account identifier is a service-account record; otherwise
// it is a group-access record for a human identity.
type AccessRecord struct {
	Application  string        `json:"application"`
	Frequency    string        `json:"frequency"`
	Period       string        `json:"period"`
	Source       Source        `json:"source"`
	Kind         RecordKind    `json:"kind"`
	AccountID    string        `json:"account_id"`
	Role         string        `json:"role"`
	Manager      string        `json:"manager,omitempty"`
	Delegate     string        `json:"delegate,omitempty"`
	SignOff      SignOffStatus `json:"sign_off_status"`
	TicketKey    string        `json:"ticket_key,omitempty"`
	TicketStatus string        `json:"ticket_status,omitempty"`
	Comment      string        `json:"comment,omitempty"`
	DecidedBy    string        `json:"decided_by,omitempty"`
	DecidedAt    *time.Time    `json:"decided_at,omitempty"`
}

func (r *AccessRecord) AuditKey() AuditKey {
	return AuditKey{Application: r.Application, Frequency: r.Frequency, Period: r.Period}
}

// RecordKey identifies a single access record within the authoritative table.
type RecordKey struct {
	AuditKey
	Source    Source `json:"source"`
	AccountID string `json:"account_id"`
}

// FreshRecord is the transient candidate-table counterpart of AccessRecord.
// It carries no sign-off state: it is ground truth pulled from a source at
// sync time, used only for diffing.
type FreshRecord struct {
	Application string     `json:"application"`
	Frequency   string     `json:"frequency"`
	Period      string     `json:"period"`
	Source      Source     `json:"source"`
	Kind        RecordKind `json:"kind"`
	AccountID   string     `json:"account_id"`
	Role        string     `json:"role"`
	Manager     string     `json:"manager,omitempty"`
	Delegate    string     `json:"delegate,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// Pending converts a fresh snapshot row into a pending review row.
func (f *FreshRecord) Pending() AccessRecord {
	return AccessRecord{
		Application: f.Application,
		Frequency:   f.Frequency,
		Period:      f.Period,
		Source:      f.Source,
		Kind:        f.Kind,
		AccountID:   f.AccountID,
		Role:        f.Role,
		Manager:     f.Manager,
		Delegate:    f.Delegate,
		SignOff:     SignOffPending,
	}
}

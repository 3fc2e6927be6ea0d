// api/model/audit.go
package model

import (
	"fmt"
	"time"
)

// Progress is the lifecycle state of an audit.
type Progress string

const (
	ProgressAuditStarted       Progress = "audit_started"
	ProgressDetailsUnderReview Progress = "details_under_review"
	ProgressFinalSignOffDone   Progress = "final_sign_off_done"
	ProgressSummaryGenerated   Progress = "summary_generated"
	ProgressCompleted          Progress = "completed"
)

// progressOrder defines the forward ordering of lifecycle states.
var progressOrder = map[Progress]int{
	ProgressAuditStarted:       0,
	ProgressDetailsUnderReview: 1,
	ProgressFinalSignOffDone:   2,
	ProgressSummaryGenerated:   3,
	ProgressCompleted:          4,
}

func ParseProgress(s string) (Progress, error) {
	p := Progress(s)
	if _, ok := progressOrder[p]; !ok {
		return "", fmt.Errorf("unknown progress value: %q", s)
	}
	return p, nil
}

// Rank returns the position of the state in the lifecycle ordering.
func (p Progress) Rank() int {
	return progressOrder[p]
}

// IsForwardOf reports whether p is a strictly later state than other.
func (p Progress) IsForwardOf(other Progress) bool {
	return progressOrder[p] > progressOrder[other]
}

// AuditStatus is the coarse derived status shown alongside Progress.
type AuditStatus string

const (
	StatusInProgress           AuditStatus = "in_progress"
	StatusAccessReviewComplete AuditStatus = "access_review_complete"
	StatusCompleted            AuditStatus = "completed"
)

// TicketNotAvailable is stored on an audit when ticket creation failed so that
// initiation never blocks on tracker availability.
const TicketNotAvailable = "Not Available"

// AuditKey identifies one review cycle: an application reviewed at a frequency
// for a period (e.g. "payments", "quarterly", "2025-Q1").
type AuditKey struct {
	Application string `json:"application"`
	Frequency   string `json:"frequency"`
	Period      string `json:"period"`
}

func (k AuditKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Application, k.Frequency, k.Period)
}

type Audit struct {
	Application  string      `json:"application"`
	Frequency    string      `json:"frequency"`
	Period       string      `json:"period"`
	Progress     Progress    `json:"progress"`
	Status       AuditStatus `json:"status"`
	TicketKey    string      `json:"ticket_key,omitempty"`
	TicketStatus string      `json:"ticket_status,omitempty"`
	InitiatedBy  string      `json:"initiated_by"`
	CompletedBy  string      `json:"completed_by,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

func (a *Audit) Key() AuditKey {
	return AuditKey{Application: a.Application, Frequency: a.Frequency, Period: a.Period}
}

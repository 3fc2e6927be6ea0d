// api/ticket/synchronizer.go
package ticket

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	argus_errors "github.com/dev-mohitbeniwal/argus/api/errors"
	logger "github.com/dev-mohitbeniwal/argus/api/logging"
	"github.com/dev-mohitbeniwal/argus/api/model"
)

// DependsOnLink is the relation used to tie a record ticket to its parent
// audit ticket.
const DependsOnLink = "Depends"

// AuditStore persists tracker state onto an audit.
type AuditStore interface {
	UpdateAuditTicket(ctx context.Context, key model.AuditKey, ticketKey, status string) error
}

// RecordStore persists tracker state onto individual access records.
type RecordStore interface {
	UpdateRecordTicket(ctx context.Context, key model.RecordKey, ticketKey, status string) error
	ListTicketedRecords(ctx context.Context, key model.AuditKey) ([]model.AccessRecord, error)
}

// StatusCache is a short-lived cross-request cache of ticket statuses, used
// to avoid hammering the tracker when several reads poll the same tickets.
// A nil cache disables it.
type StatusCache interface {
	GetTicketStatus(ctx context.Context, ticketKey string) (string, error)
	SetTicketStatus(ctx context.Context, ticketKey, status string) error
}

// Synchronizer creates and links tracker tickets for audits and rejected
// records, and reconciles locally cached ticket status against the tracker.
type Synchronizer struct {
	client      Client
	auditStore  AuditStore
	recordStore RecordStore
	statusCache StatusCache
	opts        Options
}

func NewSynchronizer(client Client, auditStore AuditStore, recordStore RecordStore, statusCache StatusCache, opts Options) *Synchronizer {
	if opts.IssueType == "" {
		opts.IssueType = "Task"
	}
	return &Synchronizer{
		client:      client,
		auditStore:  auditStore,
		recordStore: recordStore,
		statusCache: statusCache,
		opts:        opts,
	}
}

// CreateAuditTicket creates the tracker ticket for an audit and stores the
// returned key and status on it. On tracker failure the audit is stamped with
// the "Not Available" sentinel so initiation never blocks on tracker
// availability; the error is returned for logging only.
func (s *Synchronizer) CreateAuditTicket(ctx context.Context, audit *model.Audit) (string, error) {
	project := s.opts.ProjectFor(audit.Application)
	summary := fmt.Sprintf("Access review: %s (%s %s)", audit.Application, audit.Frequency, audit.Period)
	description := fmt.Sprintf(
		"Periodic access review for application %s.\nFrequency: %s\nPeriod: %s\nInitiated by: %s",
		audit.Application, audit.Frequency, audit.Period, audit.InitiatedBy)

	fields := s.buildFields(ctx, audit.Application, project, summary, description)

	issue, err := s.client.CreateIssue(ctx, fields)
	if err != nil {
		logger.Error("Failed to create audit ticket",
			zap.Error(err),
			zap.String("auditKey", audit.Key().String()))
		audit.TicketKey = model.TicketNotAvailable
		audit.TicketStatus = model.TicketNotAvailable
		if storeErr := s.auditStore.UpdateAuditTicket(ctx, audit.Key(), model.TicketNotAvailable, model.TicketNotAvailable); storeErr != nil {
			logger.Error("Failed to record ticket failure sentinel", zap.Error(storeErr))
		}
		return "", fmt.Errorf("%w: %v", argus_errors.ErrTicketUnavailable, err)
	}

	audit.TicketKey = issue.Key
	audit.TicketStatus = "Open"
	if err := s.auditStore.UpdateAuditTicket(ctx, audit.Key(), issue.Key, "Open"); err != nil {
		return "", fmt.Errorf("failed to store audit ticket reference: %w", err)
	}

	logger.Info("Audit ticket created",
		zap.String("auditKey", audit.Key().String()),
		zap.String("ticketKey", issue.Key))
	return issue.Key, nil
}

// CreateRecordTicket creates a ticket for a rejected access record. Calling it
// for a record that already carries a ticket reference is a no-op returning
// the existing reference. When a parent audit ticket exists, the new ticket is
// linked to it with a depends-on relation.
func (s *Synchronizer) CreateRecordTicket(ctx context.Context, record *model.AccessRecord, parentTicket string) (string, error) {
	if record.TicketKey != "" && record.TicketKey != model.TicketNotAvailable {
		logger.Debug("Record already has a ticket, skipping creation",
			zap.String("accountID", record.AccountID),
			zap.String("ticketKey", record.TicketKey))
		return record.TicketKey, nil
	}

	project := s.opts.ProjectFor(record.Application)
	summary := fmt.Sprintf("Revoke access: %s (%s) on %s", record.AccountID, record.Role, record.Application)
	description := fmt.Sprintf(
		"Access for %s was rejected during the %s %s review of %s.\nSource: %s\nRole: %s\nManager: %s",
		record.AccountID, record.Frequency, record.Period, record.Application,
		record.Source, record.Role, record.Manager)

	fields := s.buildFields(ctx, record.Application, project, summary, description)

	issue, err := s.client.CreateIssue(ctx, fields)
	if err != nil {
		logger.Error("Failed to create record ticket",
			zap.Error(err),
			zap.String("accountID", record.AccountID))
		record.TicketKey = model.TicketNotAvailable
		record.TicketStatus = model.TicketNotAvailable
		if storeErr := s.recordStore.UpdateRecordTicket(ctx, recordKeyOf(record), model.TicketNotAvailable, model.TicketNotAvailable); storeErr != nil {
			logger.Error("Failed to record ticket failure sentinel", zap.Error(storeErr))
		}
		return "", fmt.Errorf("%w: %v", argus_errors.ErrTicketUnavailable, err)
	}

	if parentTicket != "" && parentTicket != model.TicketNotAvailable {
		if err := s.client.LinkIssues(ctx, issue.Key, parentTicket, DependsOnLink); err != nil {
			logger.Warn("Failed to link record ticket to audit ticket",
				zap.Error(err),
				zap.String("ticketKey", issue.Key),
				zap.String("parentTicket", parentTicket))
		}
	}

	if record.Comment != "" {
		if err := s.client.AddComment(ctx, issue.Key, record.Comment); err != nil {
			logger.Warn("Failed to add reviewer comment to ticket",
				zap.Error(err),
				zap.String("ticketKey", issue.Key))
		}
	}

	record.TicketKey = issue.Key
	record.TicketStatus = "Open"
	if err := s.recordStore.UpdateRecordTicket(ctx, recordKeyOf(record), issue.Key, "Open"); err != nil {
		return "", fmt.Errorf("failed to store record ticket reference: %w", err)
	}

	logger.Info("Record ticket created",
		zap.String("accountID", record.AccountID),
		zap.String("ticketKey", issue.Key))
	return issue.Key, nil
}

// PollStatuses refreshes the cached ticket status of every record under the
// audit whose status is not terminal. Statuses are looked up at most once per
// ticket reference within a single pass via the poll-scoped cache. It runs
// opportunistically before reads that surface ticket status, so it shares
// fate with the surrounding request's context deadline.
func (s *Synchronizer) PollStatuses(ctx context.Context, key model.AuditKey) error {
	records, err := s.recordStore.ListTicketedRecords(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to list ticketed records: %w", err)
	}

	start := time.Now()
	statusCache := make(map[string]string)
	var updated int

	for i := range records {
		record := &records[i]
		if record.TicketKey == "" || record.TicketKey == model.TicketNotAvailable {
			continue
		}
		if IsTerminalStatus(record.TicketStatus) {
			continue
		}

		liveStatus, ok := statusCache[record.TicketKey]
		if !ok && s.statusCache != nil {
			if cached, err := s.statusCache.GetTicketStatus(ctx, record.TicketKey); err == nil && cached != "" {
				liveStatus, ok = cached, true
				statusCache[record.TicketKey] = cached
			}
		}
		if !ok {
			issue, err := s.client.GetIssue(ctx, record.TicketKey)
			if err != nil {
				logger.Warn("Failed to poll ticket status",
					zap.Error(err),
					zap.String("ticketKey", record.TicketKey))
				continue
			}
			liveStatus = issue.Status
			statusCache[record.TicketKey] = liveStatus
			if s.statusCache != nil {
				if err := s.statusCache.SetTicketStatus(ctx, record.TicketKey, liveStatus); err != nil {
					logger.Debug("Failed to cache ticket status", zap.Error(err))
				}
			}
		}

		if liveStatus == record.TicketStatus {
			continue
		}
		if err := s.recordStore.UpdateRecordTicket(ctx, recordKeyOf(record), record.TicketKey, liveStatus); err != nil {
			logger.Error("Failed to store refreshed ticket status",
				zap.Error(err),
				zap.String("ticketKey", record.TicketKey))
			continue
		}
		record.TicketStatus = liveStatus
		updated++
	}

	logger.Debug("Ticket status poll finished",
		zap.String("auditKey", key.String()),
		zap.Int("updated", updated),
		zap.Int("fetched", len(statusCache)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// buildFields assembles the ticket field map, merging per-application custom
// fields transformed against the tracker's field schema when available.
func (s *Synchronizer) buildFields(ctx context.Context, app, project, summary, description string) map[string]interface{} {
	fields := map[string]interface{}{
		"project":     map[string]interface{}{"key": project},
		"issuetype":   map[string]interface{}{"name": s.opts.IssueType},
		"summary":     summary,
		"description": description,
	}

	raw := s.opts.RawFieldsFor(app)
	if len(raw) == 0 {
		return fields
	}

	kinds, err := s.client.FieldKinds(ctx)
	if err != nil {
		logger.Warn("Field schema unavailable, falling back to pattern matching", zap.Error(err))
		kinds = nil
	}
	for id, value := range TransformFields(raw, kinds) {
		fields[id] = value
	}
	return fields
}

func recordKeyOf(record *model.AccessRecord) model.RecordKey {
	return model.RecordKey{
		AuditKey:  record.AuditKey(),
		Source:    record.Source,
		AccountID: record.AccountID,
	}
}

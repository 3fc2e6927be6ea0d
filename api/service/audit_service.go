// api/service/audit_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/argus/api/activity"
	"github.com/dev-mohitbeniwal/argus/api/dao"
	argus_errors "github.com/dev-mohitbeniwal/argus/api/errors"
	logger "github.com/dev-mohitbeniwal/argus/api/logging"
	"github.com/dev-mohitbeniwal/argus/api/model"
	"github.com/dev-mohitbeniwal/argus/api/util"
)

const (
	auditLockTTL       = 30 * time.Second
	auditLockRetryWait = 100 * time.Millisecond
)

type IAuditService interface {
	Initiate(ctx context.Context, key model.AuditKey, initiator string) (*model.Audit, error)
	GetAudit(ctx context.Context, key model.AuditKey) (*model.Audit, error)
	ListAudits(ctx context.Context, app string, limit, offset int) ([]*model.Audit, error)
	ListRecords(ctx context.Context, key model.AuditKey, src model.Source) ([]model.AccessRecord, error)
	RecordDecision(ctx context.Context, key model.RecordKey, status model.SignOffStatus, actor, comment string) (*model.AccessRecord, error)
	SyncData(ctx context.Context, key model.AuditKey) (*model.ReconciliationStats, error)
	RefreshData(ctx context.Context, key model.AuditKey, actor string) (*model.ReconciliationStats, error)
	AdvanceProgress(ctx context.Context, key model.AuditKey, target string, actor string) (*model.Audit, error)
	Complete(ctx context.Context, key model.AuditKey, actor string) (*model.Audit, error)
	Purge(ctx context.Context, key model.AuditKey, actor string) error
}

// TicketSynchronizer is the tracker surface the lifecycle manager depends on.
type TicketSynchronizer interface {
	CreateAuditTicket(ctx context.Context, audit *model.Audit) (string, error)
	CreateRecordTicket(ctx context.Context, record *model.AccessRecord, parentTicket string) (string, error)
	PollStatuses(ctx context.Context, key model.AuditKey) error
}

// AuditCache combines audit read caching with the per-key lock that
// serializes conflicting operations on the same audit.
type AuditCache interface {
	GetAudit(ctx context.Context, key model.AuditKey) (*model.Audit, error)
	SetAudit(ctx context.Context, audit model.Audit) error
	DeleteAudit(ctx context.Context, key model.AuditKey) error
	LockAudit(ctx context.Context, key model.AuditKey, ttl time.Duration) (bool, error)
	UnlockAudit(ctx context.Context, key model.AuditKey) error
}

// Notifier announces lifecycle changes to interested humans.
type Notifier interface {
	NotifyAuditChange(ctx context.Context, changeType string, audit model.Audit) error
}

// AuditService owns the audit lifecycle: initiation, reviewer decisions,
// forward-only progress transitions, completion and purge. Every mutation
// appends to the activity ledger.
type AuditService struct {
	auditDAO          dao.IAuditDAO
	recordDAO         dao.IRecordDAO
	reconciliationSvc IReconciliationService
	synchronizer      TicketSynchronizer
	activitySvc       activity.Service
	cacheSvc          AuditCache
	notificationSvc   Notifier
	validationUtil    *util.ValidationUtil
	eventBus          *util.EventBus
}

var _ IAuditService = (*AuditService)(nil)

func NewAuditService(
	auditDAO dao.IAuditDAO,
	recordDAO dao.IRecordDAO,
	reconciliationSvc IReconciliationService,
	synchronizer TicketSynchronizer,
	activitySvc activity.Service,
	cacheSvc AuditCache,
	notificationSvc Notifier,
	validationUtil *util.ValidationUtil,
	eventBus *util.EventBus,
) *AuditService {
	s := &AuditService{
		auditDAO:          auditDAO,
		recordDAO:         recordDAO,
		reconciliationSvc: reconciliationSvc,
		synchronizer:      synchronizer,
		activitySvc:       activitySvc,
		cacheSvc:          cacheSvc,
		notificationSvc:   notificationSvc,
		validationUtil:    validationUtil,
		eventBus:          eventBus,
	}

	if eventBus != nil && notificationSvc != nil {
		eventBus.Subscribe("audit.initiated", s.handleAuditChange("initiated"))
		eventBus.Subscribe("audit.signed_off", s.handleAuditChange("signed_off"))
		eventBus.Subscribe("audit.completed", s.handleAuditChange("completed"))
	}
	return s
}

func (s *AuditService) handleAuditChange(changeType string) util.EventHandler {
	return func(ctx context.Context, event util.Event) error {
		audit, ok := event.Payload.(model.Audit)
		if !ok {
			return fmt.Errorf("unexpected payload type for %s event", event.Type)
		}
		return s.notificationSvc.NotifyAuditChange(ctx, changeType, audit)
	}
}

// withLock serializes operations on one audit key. Lock contention waits
// rather than fails, bounded by the caller's context.
func (s *AuditService) withLock(ctx context.Context, key model.AuditKey, fn func() error) error {
	for {
		locked, err := s.cacheSvc.LockAudit(ctx, key, auditLockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire audit lock: %w", err)
		}
		if locked {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(auditLockRetryWait):
		}
	}
	defer func() {
		if err := s.cacheSvc.UnlockAudit(ctx, key); err != nil {
			logger.Error("Failed to release audit lock", zap.Error(err), zap.String("auditKey", key.String()))
		}
	}()
	return fn()
}

// Initiate creates the audit, pulls the first snapshot from every source,
// seeds the review table with pending records, opens the tracker ticket and
// advances to the review state. A second initiation for the same key is a
// conflict. Tracker unavailability does not block initiation.
func (s *AuditService) Initiate(ctx context.Context, key model.AuditKey, initiator string) (*model.Audit, error) {
	if err := s.validationUtil.ValidateAuditKey(key); err != nil {
		return nil, fmt.Errorf("%w: %v", argus_errors.ErrInvalidArgument, err)
	}
	if err := s.validationUtil.ValidateActor(initiator); err != nil {
		return nil, fmt.Errorf("%w: %v", argus_errors.ErrInvalidArgument, err)
	}

	now := time.Now()
	audit := model.Audit{
		Application: key.Application,
		Frequency:   key.Frequency,
		Period:      key.Period,
		Progress:    model.ProgressAuditStarted,
		Status:      model.StatusInProgress,
		InitiatedBy: initiator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.withLock(ctx, key, func() error {
		if err := s.auditDAO.CreateAudit(ctx, audit); err != nil {
			return err
		}

		// Stale records from a purged prior run must not leak into this one.
		if err := s.recordDAO.DeleteAuthoritative(ctx, key); err != nil {
			return fmt.Errorf("failed to clear stale records: %w", err)
		}

		if _, err := s.reconciliationSvc.Sync(ctx, key); err != nil {
			return fmt.Errorf("initial sync failed: %w", err)
		}
		if err := s.recordDAO.SeedPendingFromFresh(ctx, key); err != nil {
			return fmt.Errorf("failed to seed review table: %w", err)
		}

		if _, err := s.synchronizer.CreateAuditTicket(ctx, &audit); err != nil {
			logger.Warn("Audit initiated without tracker ticket",
				zap.Error(err),
				zap.String("auditKey", key.String()))
		}

		if err := s.auditDAO.UpdateProgress(ctx, key, model.ProgressDetailsUnderReview, model.StatusInProgress); err != nil {
			return fmt.Errorf("failed to advance to review state: %w", err)
		}
		audit.Progress = model.ProgressDetailsUnderReview
		audit.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := activity.Event{
		Kind:           activity.AuditInitiated,
		Application:    key.Application,
		Frequency:      key.Frequency,
		Period:         key.Period,
		Actor:          initiator,
		PreviousStatus: string(model.ProgressAuditStarted),
		NewStatus:      string(model.ProgressDetailsUnderReview),
	}
	if err := s.activitySvc.Record(ctx, event); err != nil {
		logger.Error("Failed to record initiation event", zap.Error(err))
	}

	if err := s.cacheSvc.SetAudit(ctx, audit); err != nil {
		logger.Warn("Failed to cache audit", zap.Error(err))
	}
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, "audit.initiated", audit)
	}

	logger.Info("Audit initiated",
		zap.String("auditKey", key.String()),
		zap.String("initiator", initiator),
		zap.String("ticketKey", audit.TicketKey))
	return &audit, nil
}

// GetAudit serves from cache when possible and falls back to the store.
func (s *AuditService) GetAudit(ctx context.Context, key model.AuditKey) (*model.Audit, error) {
	if cached, err := s.cacheSvc.GetAudit(ctx, key); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		logger.Warn("Audit cache read failed", zap.Error(err), zap.String("auditKey", key.String()))
	}

	audit, err := s.auditDAO.GetAudit(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.cacheSvc.SetAudit(ctx, *audit); err != nil {
		logger.Warn("Failed to cache audit", zap.Error(err))
	}
	return audit, nil
}

func (s *AuditService) ListAudits(ctx context.Context, app string, limit, offset int) ([]*model.Audit, error) {
	if limit < 0 || offset < 0 {
		return nil, argus_errors.ErrInvalidPagination
	}
	return s.auditDAO.ListAudits(ctx, app, limit, offset)
}

// ListRecords returns the review table for an audit, optionally filtered by
// source. Ticket statuses are opportunistically refreshed from the tracker
// first; a failed poll degrades to the cached statuses.
func (s *AuditService) ListRecords(ctx context.Context, key model.AuditKey, src model.Source) ([]model.AccessRecord, error) {
	if err := s.synchronizer.PollStatuses(ctx, key); err != nil {
		logger.Warn("Ticket status poll failed, serving cached statuses",
			zap.Error(err),
			zap.String("auditKey", key.String()))
	}
	return s.recordDAO.ListRecords(ctx, key, src)
}

// SyncData re-pulls every source and replaces the candidate snapshot. It
// holds the audit lock so a snapshot replacement cannot interleave with a
// concurrent decision or transition on the same key.
func (s *AuditService) SyncData(ctx context.Context, key model.AuditKey) (*model.ReconciliationStats, error) {
	var stats *model.ReconciliationStats
	err := s.withLock(ctx, key, func() error {
		var err error
		stats, err = s.reconciliationSvc.Sync(ctx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RefreshData rebuilds the review table from a new snapshot and drops the
// audit back to the review state. The rebuild spans several transactions, so
// the audit lock is held across all of them; a decision racing the refresh
// waits instead of landing between the snapshot replacement and the reseed.
func (s *AuditService) RefreshData(ctx context.Context, key model.AuditKey, actor string) (*model.ReconciliationStats, error) {
	if err := s.validationUtil.ValidateActor(actor); err != nil {
		return nil, fmt.Errorf("%w: %v", argus_errors.ErrInvalidArgument, err)
	}

	var stats *model.ReconciliationStats
	err := s.withLock(ctx, key, func() error {
		var err error
		stats, err = s.reconciliationSvc.Refresh(ctx, key, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.cacheSvc.DeleteAudit(ctx, key); err != nil {
		logger.Warn("Failed to evict refreshed audit from cache", zap.Error(err))
	}
	return stats, nil
}

// RecordDecision applies a reviewer's approve/reject decision to one record.
// Decisions are only accepted while the audit is in the review state.
// Approval clears any prior ticket reference; rejection opens a revocation
// ticket linked to the audit ticket.
func (s *AuditService) RecordDecision(ctx context.Context, key model.RecordKey, status model.SignOffStatus, actor, comment string) (*model.AccessRecord, error) {
	if err := s.validationUtil.ValidateRecordKey(key); err != nil {
		return nil, fmt.Errorf("%w: %v", argus_errors.ErrInvalidArgument, err)
	}
	if err := s.validationUtil.ValidateDecision(status); err != nil {
		return nil, fmt.Errorf("%w: %v", argus_errors.ErrInvalidArgument, err)
	}
	if err := s.validationUtil.ValidateActor(actor); err != nil {
		return nil, fmt.Errorf("%w: %v", argus_errors.ErrInvalidArgument, err)
	}

	var record *model.AccessRecord
	err := s.withLock(ctx, key.AuditKey, func() error {
		audit, err := s.auditDAO.GetAudit(ctx, key.AuditKey)
		if err != nil {
			return err
		}
		if audit.Progress != model.ProgressDetailsUnderReview {
			return &argus_errors.InvalidTransitionError{
				Current:   string(audit.Progress),
				Requested: string(model.ProgressDetailsUnderReview),
			}
		}

		record, err = s.recordDAO.GetRecord(ctx, key)
		if err != nil {
			return err
		}
		previous := record.SignOff
		now := time.Now()

		clearTicket := status == model.SignOffApproved
		if err := s.recordDAO.UpdateDecision(ctx, key, status, actor, comment, clearTicket, now); err != nil {
			return err
		}

		record.SignOff = status
		record.DecidedBy = actor
		record.DecidedAt = &now
		record.Comment = comment
		if clearTicket {
			record.TicketKey = ""
			record.TicketStatus = ""
			record.Comment = ""
		}

		eventKind := activity.AccessApproved
		if status == model.SignOffRejected {
			eventKind = activity.AccessRevoked
			if record.TicketKey == "" || record.TicketKey == model.TicketNotAvailable {
				if _, err := s.synchronizer.CreateRecordTicket(ctx, record, audit.TicketKey); err != nil {
					logger.Warn("Rejection recorded without tracker ticket",
						zap.Error(err),
						zap.String("accountID", record.AccountID))
				}
			}
		}

		event := activity.Event{
			Kind:           eventKind,
			Application:    key.Application,
			Frequency:      key.Frequency,
			Period:         key.Period,
			AccountID:      key.AccountID,
			Actor:          actor,
			PreviousStatus: string(previous),
			NewStatus:      string(status),
			Reason:         comment,
		}
		if err := s.activitySvc.Record(ctx, event); err != nil {
			logger.Error("Failed to record decision event", zap.Error(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Decision recorded",
		zap.String("recordKey", fmt.Sprintf("%s|%s|%s", key.AuditKey, key.Source, key.AccountID)),
		zap.String("decision", string(status)),
		zap.String("actor", actor))
	return record, nil
}

// AdvanceProgress moves the audit forward through the lifecycle. Transitions
// only go forward; the sole path backward is a data refresh. Advancing to the
// terminal state routes through the same completion logic as Complete.
func (s *AuditService) AdvanceProgress(ctx context.Context, key model.AuditKey, target string, actor string) (*model.Audit, error) {
	if err := s.validationUtil.ValidateActor(actor); err != nil {
		return nil, fmt.Errorf("%w: %v", argus_errors.ErrInvalidArgument, err)
	}
	targetProgress, err := model.ParseProgress(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", argus_errors.ErrInvalidArgument, err)
	}
	if targetProgress == model.ProgressCompleted {
		return s.Complete(ctx, key, actor)
	}

	var audit *model.Audit
	err = s.withLock(ctx, key, func() error {
		audit, err = s.auditDAO.GetAudit(ctx, key)
		if err != nil {
			return err
		}
		if audit.Progress == model.ProgressCompleted {
			return argus_errors.ErrAuditCompleted
		}
		if !targetProgress.IsForwardOf(audit.Progress) {
			return &argus_errors.InvalidTransitionError{
				Current:   string(audit.Progress),
				Requested: string(targetProgress),
			}
		}

		status := model.StatusInProgress
		if targetProgress.Rank() >= model.ProgressFinalSignOffDone.Rank() {
			status = model.StatusAccessReviewComplete
		}
		if err := s.auditDAO.UpdateProgress(ctx, key, targetProgress, status); err != nil {
			return err
		}

		previous := audit.Progress
		audit.Progress = targetProgress
		audit.Status = status
		audit.UpdatedAt = time.Now()

		eventKind := activity.AuditProgressUpdated
		switch targetProgress {
		case model.ProgressFinalSignOffDone:
			eventKind = activity.AuditFinalSignoffCompleted
		case model.ProgressSummaryGenerated:
			eventKind = activity.AuditSummaryGenerated
		}
		event := activity.Event{
			Kind:           eventKind,
			Application:    key.Application,
			Frequency:      key.Frequency,
			Period:         key.Period,
			Actor:          actor,
			PreviousStatus: string(previous),
			NewStatus:      string(targetProgress),
		}
		if err := s.activitySvc.Record(ctx, event); err != nil {
			logger.Error("Failed to record progress event", zap.Error(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cacheSvc.SetAudit(ctx, *audit); err != nil {
		logger.Warn("Failed to cache audit", zap.Error(err))
	}
	if s.eventBus != nil && audit.Progress == model.ProgressFinalSignOffDone {
		s.eventBus.Publish(ctx, "audit.signed_off", *audit)
	}

	logger.Info("Audit progress advanced",
		zap.String("auditKey", key.String()),
		zap.String("progress", string(audit.Progress)),
		zap.String("actor", actor))
	return audit, nil
}

// Complete moves the audit into its terminal state. Only an audit whose
// summary has been generated can be completed; a completed audit rejects
// every further mutation.
func (s *AuditService) Complete(ctx context.Context, key model.AuditKey, actor string) (*model.Audit, error) {
	if err := s.validationUtil.ValidateActor(actor); err != nil {
		return nil, fmt.Errorf("%w: %v", argus_errors.ErrInvalidArgument, err)
	}

	var audit *model.Audit
	err := s.withLock(ctx, key, func() error {
		var err error
		audit, err = s.auditDAO.GetAudit(ctx, key)
		if err != nil {
			return err
		}
		if audit.Progress == model.ProgressCompleted {
			return argus_errors.ErrAuditCompleted
		}
		if audit.Progress != model.ProgressSummaryGenerated {
			return &argus_errors.InvalidTransitionError{
				Current:   string(audit.Progress),
				Requested: string(model.ProgressCompleted),
			}
		}

		now := time.Now()
		if err := s.auditDAO.SetCompleted(ctx, key, actor, now); err != nil {
			return err
		}

		previous := audit.Progress
		audit.Progress = model.ProgressCompleted
		audit.Status = model.StatusCompleted
		audit.CompletedBy = actor
		audit.CompletedAt = &now
		audit.UpdatedAt = now

		event := activity.Event{
			Kind:           activity.AuditCompleted,
			Application:    key.Application,
			Frequency:      key.Frequency,
			Period:         key.Period,
			Actor:          actor,
			PreviousStatus: string(previous),
			NewStatus:      string(model.ProgressCompleted),
		}
		if err := s.activitySvc.Record(ctx, event); err != nil {
			logger.Error("Failed to record completion event", zap.Error(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cacheSvc.SetAudit(ctx, *audit); err != nil {
		logger.Warn("Failed to cache audit", zap.Error(err))
	}
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, "audit.completed", *audit)
	}

	logger.Info("Audit completed",
		zap.String("auditKey", key.String()),
		zap.String("actor", actor))
	return audit, nil
}

// Purge removes an audit and its records entirely. The ledger keeps the purge
// event, so the deletion itself stays auditable.
func (s *AuditService) Purge(ctx context.Context, key model.AuditKey, actor string) error {
	if err := s.validationUtil.ValidateActor(actor); err != nil {
		return fmt.Errorf("%w: %v", argus_errors.ErrInvalidArgument, err)
	}

	err := s.withLock(ctx, key, func() error {
		if _, err := s.auditDAO.GetAudit(ctx, key); err != nil {
			return err
		}
		if err := s.recordDAO.DeleteAuthoritative(ctx, key); err != nil {
			return fmt.Errorf("failed to delete review records: %w", err)
		}
		if err := s.recordDAO.ReplaceFreshSnapshot(ctx, key, nil); err != nil {
			return fmt.Errorf("failed to delete fresh snapshot: %w", err)
		}
		if err := s.auditDAO.DeleteAudit(ctx, key); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.cacheSvc.DeleteAudit(ctx, key); err != nil {
		logger.Warn("Failed to evict audit from cache", zap.Error(err))
	}

	event := activity.Event{
		Kind:        activity.AuditPurged,
		Application: key.Application,
		Frequency:   key.Frequency,
		Period:      key.Period,
		Actor:       actor,
		Reason:      "administrative purge",
	}
	if err := s.activitySvc.Record(ctx, event); err != nil {
		logger.Error("Failed to record purge event", zap.Error(err))
	}

	logger.Info("Audit purged",
		zap.String("auditKey", key.String()),
		zap.String("actor", actor))
	return nil
}

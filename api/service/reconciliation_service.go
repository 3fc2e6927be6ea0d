// api/service/reconciliation_service.go
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dev-mohitbeniwal/argus/api/activity"
	"github.com/dev-mohitbeniwal/argus/api/dao"
	argus_errors "github.com/dev-mohitbeniwal/argus/api/errors"
	logger "github.com/dev-mohitbeniwal/argus/api/logging"
	"github.com/dev-mohitbeniwal/argus/api/model"
	"github.com/dev-mohitbeniwal/argus/api/source"
)

type IReconciliationService interface {
	Sync(ctx context.Context, key model.AuditKey) (*model.ReconciliationStats, error)
	Refresh(ctx context.Context, key model.AuditKey, actor string) (*model.ReconciliationStats, error)
	Stats(ctx context.Context, key model.AuditKey) (*model.ReconciliationStats, error)
}

// ReconciliationService pulls fresh snapshots from every registered source
// adapter, replaces the transient candidate table, and computes the diff
// between the candidate table and the authoritative review table.
type ReconciliationService struct {
	auditDAO              dao.IAuditDAO
	recordDAO             dao.IRecordDAO
	adapters              []source.Adapter
	activitySvc           activity.Service
	adapterTimeout        time.Duration
	maxConcurrentFetches  int
	allowCompletedRefresh bool
}

type ReconciliationConfig struct {
	AdapterTimeout        time.Duration
	MaxConcurrentFetches  int
	AllowCompletedRefresh bool
}

func NewReconciliationService(auditDAO dao.IAuditDAO, recordDAO dao.IRecordDAO, adapters []source.Adapter, activitySvc activity.Service, cfg ReconciliationConfig) *ReconciliationService {
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = 30 * time.Second
	}
	if cfg.MaxConcurrentFetches <= 0 {
		cfg.MaxConcurrentFetches = 4
	}
	return &ReconciliationService{
		auditDAO:              auditDAO,
		recordDAO:             recordDAO,
		adapters:              adapters,
		activitySvc:           activitySvc,
		adapterTimeout:        cfg.AdapterTimeout,
		maxConcurrentFetches:  cfg.MaxConcurrentFetches,
		allowCompletedRefresh: cfg.AllowCompletedRefresh,
	}
}

// fetchAll fans out FetchSnapshot across every adapter with bounded
// concurrency and a per-adapter timeout. A failing adapter contributes zero
// rows and its error is collected; it never aborts the other fetches.
func (s *ReconciliationService) fetchAll(ctx context.Context, key model.AuditKey) ([]model.FreshRecord, []error) {
	var (
		mu       sync.Mutex
		fetched  []model.FreshRecord
		failures []error
	)

	g, gctx := errgroup.WithContext(ctx)
	semaphore := make(chan struct{}, s.maxConcurrentFetches)

	for _, adapter := range s.adapters {
		adapter := adapter
		g.Go(func() error {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fetchCtx, cancel := context.WithTimeout(gctx, s.adapterTimeout)
			defer cancel()

			start := time.Now()
			records, err := adapter.FetchSnapshot(fetchCtx, key.Application, key.Frequency, key.Period)
			if err != nil {
				logger.Warn("Source adapter fetch failed",
					zap.Error(err),
					zap.String("source", string(adapter.Name())),
					zap.String("auditKey", key.String()))
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", adapter.Name(), err))
				mu.Unlock()
				return nil
			}

			logger.Debug("Source adapter fetch complete",
				zap.String("source", string(adapter.Name())),
				zap.Int("records", len(records)),
				zap.Duration("duration", time.Since(start)))
			mu.Lock()
			fetched = append(fetched, records...)
			mu.Unlock()
			return nil
		})
	}

	// Goroutines swallow their own errors, so Wait only propagates context
	// cancellation, which the caller already observes.
	_ = g.Wait()
	return fetched, failures
}

// Sync pulls a fresh snapshot from every source and atomically replaces the
// candidate table for the audit key. Partial source outages degrade the
// snapshot; a store failure aborts the sync and leaves the prior snapshot
// intact.
func (s *ReconciliationService) Sync(ctx context.Context, key model.AuditKey) (*model.ReconciliationStats, error) {
	start := time.Now()
	logger.Info("Syncing access data", zap.String("auditKey", key.String()))

	fetched, failures := s.fetchAll(ctx, key)
	if len(failures) == len(s.adapters) && len(s.adapters) > 0 {
		logger.Error("All source adapters failed, keeping prior snapshot",
			zap.String("auditKey", key.String()),
			zap.Int("failures", len(failures)))
		return nil, fmt.Errorf("%w: no source produced a snapshot", argus_errors.ErrUpstreamUnavailable)
	}

	if err := s.recordDAO.ReplaceFreshSnapshot(ctx, key, fetched); err != nil {
		logger.Error("Failed to replace fresh snapshot", zap.Error(err), zap.String("auditKey", key.String()))
		return nil, fmt.Errorf("failed to replace fresh snapshot: %w", err)
	}

	stats, err := s.Stats(ctx, key)
	if err != nil {
		return nil, err
	}

	logger.Info("Sync complete",
		zap.String("auditKey", key.String()),
		zap.Int("fetched", len(fetched)),
		zap.Int("sourceFailures", len(failures)),
		zap.Duration("duration", time.Since(start)))
	return stats, nil
}

// Refresh re-pulls every source and rebuilds the authoritative review table
// from the new snapshot, discarding all recorded decisions. The audit drops
// back to the review state regardless of how far it had advanced. Completed
// audits refuse a refresh unless explicitly allowed by configuration.
func (s *ReconciliationService) Refresh(ctx context.Context, key model.AuditKey, actor string) (*model.ReconciliationStats, error) {
	audit, err := s.auditDAO.GetAudit(ctx, key)
	if err != nil {
		return nil, err
	}
	if audit.Progress == model.ProgressCompleted && !s.allowCompletedRefresh {
		return nil, fmt.Errorf("%w: refresh of a completed audit is disabled", argus_errors.ErrAuditCompleted)
	}
	previousProgress := audit.Progress

	stats, err := s.Sync(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.recordDAO.SeedPendingFromFresh(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to rebuild review table: %w", err)
	}
	if err := s.auditDAO.UpdateProgress(ctx, key, model.ProgressDetailsUnderReview, model.StatusInProgress); err != nil {
		return nil, fmt.Errorf("failed to reset audit progress: %w", err)
	}

	// Stats were computed against the pre-seed review table; after seeding,
	// the review table mirrors the snapshot.
	stats, err = s.Stats(ctx, key)
	if err != nil {
		return nil, err
	}

	totals := stats.Totals()
	event := activity.Event{
		Kind:           activity.AuditDataRefreshed,
		Application:    key.Application,
		Frequency:      key.Frequency,
		Period:         key.Period,
		Actor:          actor,
		PreviousStatus: string(previousProgress),
		NewStatus:      string(model.ProgressDetailsUnderReview),
		Reason:         fmt.Sprintf("refreshed %d records across %d sources", totals.Total, len(stats.Sources)),
	}
	if err := s.activitySvc.Record(ctx, event); err != nil {
		logger.Error("Failed to record refresh event", zap.Error(err))
	}

	logger.Info("Audit data refreshed",
		zap.String("auditKey", key.String()),
		zap.String("actor", actor),
		zap.Int("records", totals.Total))
	return stats, nil
}

// Stats joins the authoritative review table against the latest fresh
// snapshot and returns per-source counts. It is a pure computation over the
// two tables and persists nothing.
func (s *ReconciliationService) Stats(ctx context.Context, key model.AuditKey) (*model.ReconciliationStats, error) {
	records, err := s.recordDAO.ListRecords(ctx, key, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list review records: %w", err)
	}
	fresh, err := s.recordDAO.ListFresh(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list fresh snapshot: %w", err)
	}
	return computeStats(key, records, fresh), nil
}

func computeStats(key model.AuditKey, records []model.AccessRecord, fresh []model.FreshRecord) *model.ReconciliationStats {
	type bucket struct {
		records map[string]*model.AccessRecord
		fresh   map[string]*model.FreshRecord
	}
	buckets := make(map[model.Source]*bucket)
	bucketFor := func(src model.Source) *bucket {
		b, ok := buckets[src]
		if !ok {
			b = &bucket{
				records: make(map[string]*model.AccessRecord),
				fresh:   make(map[string]*model.FreshRecord),
			}
			buckets[src] = b
		}
		return b
	}

	for i := range records {
		r := &records[i]
		bucketFor(r.Source).records[r.AccountID] = r
	}
	for i := range fresh {
		f := &fresh[i]
		bucketFor(f.Source).fresh[f.AccountID] = f
	}

	stats := &model.ReconciliationStats{
		Application: key.Application,
		Frequency:   key.Frequency,
		Period:      key.Period,
	}
	for src, b := range buckets {
		ss := model.SourceStats{
			Source: src,
			Total:  len(b.records),
			Fresh:  len(b.fresh),
		}
		for _, r := range b.records {
			switch r.SignOff {
			case model.SignOffApproved:
				ss.Approved++
			case model.SignOffRejected:
				ss.Rejected++
			default:
				ss.Pending++
			}
			f, ok := b.fresh[r.AccountID]
			if !ok {
				ss.Removed++
				continue
			}
			if f.Role != r.Role || f.Manager != r.Manager || f.Delegate != r.Delegate {
				ss.Modified++
			}
		}
		for id := range b.fresh {
			if _, ok := b.records[id]; !ok {
				ss.Added++
			}
		}
		stats.Sources = append(stats.Sources, ss)
	}

	sort.Slice(stats.Sources, func(i, j int) bool {
		return stats.Sources[i].Source < stats.Sources[j].Source
	})
	return stats
}

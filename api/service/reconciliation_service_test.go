// api/service/reconciliation_service_test.go
package service_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/argus/api/activity"
	argus_errors "github.com/dev-mohitbeniwal/argus/api/errors"
	logger "github.com/dev-mohitbeniwal/argus/api/logging"
	"github.com/dev-mohitbeniwal/argus/api/model"
	"github.com/dev-mohitbeniwal/argus/api/service"
	"github.com/dev-mohitbeniwal/argus/api/source"
	"github.com/dev-mohitbeniwal/argus/api/test/mock"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "argus-test-logs")
	if err != nil {
		panic(err)
	}
	logger.InitLogger(dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

var testKey = model.AuditKey{Application: "payments", Frequency: "quarterly", Period: "2026-Q2"}

func freshRecord(src model.Source, account, role string) model.FreshRecord {
	return model.FreshRecord{
		Application: testKey.Application,
		Frequency:   testKey.Frequency,
		Period:      testKey.Period,
		Source:      src,
		Kind:        model.KindGroupAccess,
		AccountID:   account,
		Role:        role,
		FetchedAt:   time.Now(),
	}
}

func accessRecord(src model.Source, account, role string, signOff model.SignOffStatus) model.AccessRecord {
	return model.AccessRecord{
		Application: testKey.Application,
		Frequency:   testKey.Frequency,
		Period:      testKey.Period,
		Source:      src,
		Kind:        model.KindGroupAccess,
		AccountID:   account,
		Role:        role,
		SignOff:     signOff,
	}
}

func TestSyncComputesPerSourceStats(t *testing.T) {
	auditDAO := new(mock.MockAuditDAO)
	recordDAO := new(mock.MockRecordDAO)
	activitySvc := new(mock.MockActivityService)

	adapter := &mock.MockAdapter{SourceName: model.SourceDirectoryGroup}
	adapter.On("FetchSnapshot", tmock.Anything, testKey.Application, testKey.Frequency, testKey.Period).
		Return([]model.FreshRecord{
			freshRecord(model.SourceDirectoryGroup, "alice", "admin"),
			freshRecord(model.SourceDirectoryGroup, "bob", "dev"),
			freshRecord(model.SourceDirectoryGroup, "dave", "dev"),
		}, nil)

	recordDAO.On("ReplaceFreshSnapshot", tmock.Anything, testKey, tmock.Anything).Return(nil)
	recordDAO.On("ListRecords", tmock.Anything, testKey, model.Source("")).
		Return([]model.AccessRecord{
			accessRecord(model.SourceDirectoryGroup, "alice", "dev", model.SignOffApproved),
			accessRecord(model.SourceDirectoryGroup, "bob", "dev", model.SignOffPending),
			accessRecord(model.SourceDirectoryGroup, "carol", "dev", model.SignOffRejected),
		}, nil)
	recordDAO.On("ListFresh", tmock.Anything, testKey).
		Return([]model.FreshRecord{
			freshRecord(model.SourceDirectoryGroup, "alice", "admin"),
			freshRecord(model.SourceDirectoryGroup, "bob", "dev"),
			freshRecord(model.SourceDirectoryGroup, "dave", "dev"),
		}, nil)

	svc := service.NewReconciliationService(auditDAO, recordDAO, []source.Adapter{adapter}, activitySvc, service.ReconciliationConfig{})

	stats, err := svc.Sync(context.Background(), testKey)
	assert.NoError(t, err)
	assert.Len(t, stats.Sources, 1)

	src := stats.Sources[0]
	assert.Equal(t, model.SourceDirectoryGroup, src.Source)
	assert.Equal(t, 3, src.Total)
	assert.Equal(t, 3, src.Fresh)
	assert.Equal(t, 1, src.Approved)
	assert.Equal(t, 1, src.Rejected)
	assert.Equal(t, 1, src.Pending)
	assert.Equal(t, 1, src.Added)    // dave only in fresh
	assert.Equal(t, 1, src.Removed)  // carol only in review table
	assert.Equal(t, 1, src.Modified) // alice role changed

	// Counts stay consistent: kept = total - removed = fresh - added.
	kept := src.Total - src.Removed
	assert.Equal(t, src.Fresh-src.Added, kept)

	recordDAO.AssertExpectations(t)
}

func TestSyncIsolatesAdapterFailures(t *testing.T) {
	auditDAO := new(mock.MockAuditDAO)
	recordDAO := new(mock.MockRecordDAO)
	activitySvc := new(mock.MockActivityService)

	healthy := &mock.MockAdapter{SourceName: model.SourceDirectoryGroup}
	healthy.On("FetchSnapshot", tmock.Anything, testKey.Application, testKey.Frequency, testKey.Period).
		Return([]model.FreshRecord{
			freshRecord(model.SourceDirectoryGroup, "alice", "dev"),
			freshRecord(model.SourceDirectoryGroup, "bob", "dev"),
		}, nil)

	broken := &mock.MockAdapter{SourceName: model.SourceCodeHost}
	broken.On("FetchSnapshot", tmock.Anything, testKey.Application, testKey.Frequency, testKey.Period).
		Return(nil, errors.New("connection refused"))

	recordDAO.On("ReplaceFreshSnapshot", tmock.Anything, testKey, tmock.MatchedBy(func(records []model.FreshRecord) bool {
		return len(records) == 2
	})).Return(nil)
	recordDAO.On("ListRecords", tmock.Anything, testKey, model.Source("")).Return([]model.AccessRecord{}, nil)
	recordDAO.On("ListFresh", tmock.Anything, testKey).Return([]model.FreshRecord{}, nil)

	svc := service.NewReconciliationService(auditDAO, recordDAO, []source.Adapter{healthy, broken}, activitySvc, service.ReconciliationConfig{})

	_, err := svc.Sync(context.Background(), testKey)
	assert.NoError(t, err)
	recordDAO.AssertExpectations(t)
}

func TestSyncKeepsPriorSnapshotWhenAllSourcesFail(t *testing.T) {
	auditDAO := new(mock.MockAuditDAO)
	recordDAO := new(mock.MockRecordDAO)
	activitySvc := new(mock.MockActivityService)

	broken := &mock.MockAdapter{SourceName: model.SourceDirectoryGroup}
	broken.On("FetchSnapshot", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).
		Return(nil, errors.New("timeout"))

	svc := service.NewReconciliationService(auditDAO, recordDAO, []source.Adapter{broken}, activitySvc, service.ReconciliationConfig{})

	_, err := svc.Sync(context.Background(), testKey)
	assert.ErrorIs(t, err, argus_errors.ErrUpstreamUnavailable)
	recordDAO.AssertNotCalled(t, "ReplaceFreshSnapshot", tmock.Anything, tmock.Anything, tmock.Anything)
}

func TestSyncPropagatesStoreFailure(t *testing.T) {
	auditDAO := new(mock.MockAuditDAO)
	recordDAO := new(mock.MockRecordDAO)
	activitySvc := new(mock.MockActivityService)

	adapter := &mock.MockAdapter{SourceName: model.SourceDirectoryGroup}
	adapter.On("FetchSnapshot", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).
		Return([]model.FreshRecord{freshRecord(model.SourceDirectoryGroup, "alice", "dev")}, nil)

	recordDAO.On("ReplaceFreshSnapshot", tmock.Anything, testKey, tmock.Anything).
		Return(argus_errors.ErrDatabaseOperation)

	svc := service.NewReconciliationService(auditDAO, recordDAO, []source.Adapter{adapter}, activitySvc, service.ReconciliationConfig{})

	_, err := svc.Sync(context.Background(), testKey)
	assert.ErrorIs(t, err, argus_errors.ErrDatabaseOperation)
}

func TestRefreshResetsProgressAndRecordsEvent(t *testing.T) {
	auditDAO := new(mock.MockAuditDAO)
	recordDAO := new(mock.MockRecordDAO)
	activitySvc := new(mock.MockActivityService)

	auditDAO.On("GetAudit", tmock.Anything, testKey).Return(&model.Audit{
		Application: testKey.Application,
		Frequency:   testKey.Frequency,
		Period:      testKey.Period,
		Progress:    model.ProgressFinalSignOffDone,
		Status:      model.StatusAccessReviewComplete,
	}, nil)
	auditDAO.On("UpdateProgress", tmock.Anything, testKey, model.ProgressDetailsUnderReview, model.StatusInProgress).Return(nil)

	adapter := &mock.MockAdapter{SourceName: model.SourceDirectoryGroup}
	adapter.On("FetchSnapshot", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).
		Return([]model.FreshRecord{freshRecord(model.SourceDirectoryGroup, "alice", "dev")}, nil)

	recordDAO.On("ReplaceFreshSnapshot", tmock.Anything, testKey, tmock.Anything).Return(nil)
	recordDAO.On("SeedPendingFromFresh", tmock.Anything, testKey).Return(nil)
	recordDAO.On("ListRecords", tmock.Anything, testKey, model.Source("")).
		Return([]model.AccessRecord{accessRecord(model.SourceDirectoryGroup, "alice", "dev", model.SignOffPending)}, nil)
	recordDAO.On("ListFresh", tmock.Anything, testKey).
		Return([]model.FreshRecord{freshRecord(model.SourceDirectoryGroup, "alice", "dev")}, nil)

	activitySvc.On("Record", tmock.Anything, tmock.MatchedBy(func(e activity.Event) bool {
		return e.Kind == activity.AuditDataRefreshed &&
			e.PreviousStatus == string(model.ProgressFinalSignOffDone) &&
			e.NewStatus == string(model.ProgressDetailsUnderReview)
	})).Return(nil)

	svc := service.NewReconciliationService(auditDAO, recordDAO, []source.Adapter{adapter}, activitySvc, service.ReconciliationConfig{})

	stats, err := svc.Refresh(context.Background(), testKey, "owner1")
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Totals().Total)

	auditDAO.AssertExpectations(t)
	recordDAO.AssertExpectations(t)
	activitySvc.AssertExpectations(t)
}

func TestRefreshRefusesCompletedAudit(t *testing.T) {
	auditDAO := new(mock.MockAuditDAO)
	recordDAO := new(mock.MockRecordDAO)
	activitySvc := new(mock.MockActivityService)

	auditDAO.On("GetAudit", tmock.Anything, testKey).Return(&model.Audit{
		Application: testKey.Application,
		Frequency:   testKey.Frequency,
		Period:      testKey.Period,
		Progress:    model.ProgressCompleted,
		Status:      model.StatusCompleted,
	}, nil)

	svc := service.NewReconciliationService(auditDAO, recordDAO, nil, activitySvc, service.ReconciliationConfig{})

	_, err := svc.Refresh(context.Background(), testKey, "owner1")
	assert.ErrorIs(t, err, argus_errors.ErrAuditCompleted)
	recordDAO.AssertNotCalled(t, "SeedPendingFromFresh", tmock.Anything, tmock.Anything)
}

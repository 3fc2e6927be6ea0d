// api/controller/audit_controller_test.go
package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/argus/api/controller"
	argus_errors "github.com/dev-mohitbeniwal/argus/api/errors"
	logger "github.com/dev-mohitbeniwal/argus/api/logging"
	"github.com/dev-mohitbeniwal/argus/api/model"
	"github.com/dev-mohitbeniwal/argus/api/test/mock"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "argus-test-logs")
	if err != nil {
		panic(err)
	}
	logger.InitLogger(dir)
	gin.SetMode(gin.TestMode)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

type controllerFixture struct {
	auditSvc       *mock.MockAuditService
	reconciliation *mock.MockReconciliationService
	rbacSvc        *mock.MockRBACService
	router         *gin.Engine
}

func newControllerFixture() *controllerFixture {
	f := &controllerFixture{
		auditSvc:       new(mock.MockAuditService),
		reconciliation: new(mock.MockReconciliationService),
		rbacSvc:        new(mock.MockRBACService),
	}
	auditController := controller.NewAuditController(f.auditSvc, f.reconciliation, f.rbacSvc)

	f.router = gin.New()
	f.router.Use(func(c *gin.Context) {
		if username := c.GetHeader("X-Username"); username != "" {
			c.Set("username", username)
		}
		c.Next()
	})
	api := f.router.Group("/")
	auditController.RegisterRoutes(api)
	return f
}

func (f *controllerFixture) do(method, path, username, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	if username != "" {
		req.Header.Set("X-Username", username)
	}
	f.router.ServeHTTP(w, req)
	return w
}

var ctrlKey = model.AuditKey{Application: "payments", Frequency: "quarterly", Period: "2026-Q2"}

func TestInitiateAuditEndpoint(t *testing.T) {
	f := newControllerFixture()

	f.rbacSvc.On("RequirePermission", tmock.Anything, "payments", "owner1", model.PermInitiateAudit).Return(nil)
	f.auditSvc.On("Initiate", tmock.Anything, ctrlKey, "owner1").
		Return(&model.Audit{
			Application: ctrlKey.Application,
			Frequency:   ctrlKey.Frequency,
			Period:      ctrlKey.Period,
			Progress:    model.ProgressDetailsUnderReview,
			Status:      model.StatusInProgress,
		}, nil)

	w := f.do("POST", "/audits", "owner1",
		`{"application":"payments","frequency":"quarterly","period":"2026-Q2"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	var audit model.Audit
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &audit))
	assert.Equal(t, model.ProgressDetailsUnderReview, audit.Progress)
}

func TestInitiateAuditConflictMapsTo409(t *testing.T) {
	f := newControllerFixture()

	f.rbacSvc.On("RequirePermission", tmock.Anything, "payments", "owner1", model.PermInitiateAudit).Return(nil)
	f.auditSvc.On("Initiate", tmock.Anything, ctrlKey, "owner1").
		Return(nil, argus_errors.ErrAuditConflict)

	w := f.do("POST", "/audits", "owner1",
		`{"application":"payments","frequency":"quarterly","period":"2026-Q2"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestInitiateAuditDeniedMapsTo403(t *testing.T) {
	f := newControllerFixture()

	f.rbacSvc.On("RequirePermission", tmock.Anything, "payments", "user1", model.PermInitiateAudit).
		Return(argus_errors.ErrUnauthorized)

	w := f.do("POST", "/audits", "user1",
		`{"application":"payments","frequency":"quarterly","period":"2026-Q2"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	f.auditSvc.AssertNotCalled(t, "Initiate", tmock.Anything, tmock.Anything, tmock.Anything)
}

func TestInitiateAuditRequiresIdentity(t *testing.T) {
	f := newControllerFixture()

	w := f.do("POST", "/audits", "",
		`{"application":"payments","frequency":"quarterly","period":"2026-Q2"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetAuditNotFoundMapsTo404(t *testing.T) {
	f := newControllerFixture()

	f.rbacSvc.On("RequirePermission", tmock.Anything, "payments", "user1", model.PermViewAudit).Return(nil)
	f.auditSvc.On("GetAudit", tmock.Anything, ctrlKey).Return(nil, argus_errors.ErrAuditNotFound)

	w := f.do("GET", "/audits/payments/quarterly/2026-Q2", "user1", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdvanceProgressInvalidTransitionMapsTo409(t *testing.T) {
	f := newControllerFixture()

	f.rbacSvc.On("RequirePermission", tmock.Anything, "payments", "owner1", model.PermAdvanceProgress).Return(nil)
	f.auditSvc.On("AdvanceProgress", tmock.Anything, ctrlKey, "details_under_review", "owner1").
		Return(nil, &argus_errors.InvalidTransitionError{
			Current:   string(model.ProgressFinalSignOffDone),
			Requested: string(model.ProgressDetailsUnderReview),
		})

	w := f.do("PUT", "/audits/payments/quarterly/2026-Q2/progress", "owner1",
		`{"progress":"details_under_review"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRecordDecisionEndpoint(t *testing.T) {
	f := newControllerFixture()
	recordKey := model.RecordKey{AuditKey: ctrlKey, Source: model.SourceCodeHost, AccountID: "alice"}

	f.rbacSvc.On("RequirePermission", tmock.Anything, "payments", "reviewer1", model.PermRecordDecision).Return(nil)
	f.auditSvc.On("RecordDecision", tmock.Anything, recordKey, model.SignOffRejected, "reviewer1", "left the team").
		Return(&model.AccessRecord{
			Application: ctrlKey.Application,
			Frequency:   ctrlKey.Frequency,
			Period:      ctrlKey.Period,
			Source:      model.SourceCodeHost,
			AccountID:   "alice",
			SignOff:     model.SignOffRejected,
			TicketKey:   "AUD-9",
		}, nil)

	w := f.do("PUT", "/audits/payments/quarterly/2026-Q2/records/code-host/alice/decision", "reviewer1",
		`{"status":"rejected","comment":"left the team"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var record model.AccessRecord
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "AUD-9", record.TicketKey)
}

func TestSyncEndpointReturnsStats(t *testing.T) {
	f := newControllerFixture()

	f.rbacSvc.On("RequirePermission", tmock.Anything, "payments", "owner1", model.PermSyncData).Return(nil)
	f.auditSvc.On("SyncData", tmock.Anything, ctrlKey).
		Return(&model.ReconciliationStats{
			Application: ctrlKey.Application,
			Frequency:   ctrlKey.Frequency,
			Period:      ctrlKey.Period,
			Sources: []model.SourceStats{
				{Source: model.SourceDirectoryGroup, Total: 4, Fresh: 5, Added: 1},
			},
		}, nil)

	w := f.do("POST", "/audits/payments/quarterly/2026-Q2/sync", "owner1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var stats model.ReconciliationStats
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Sources[0].Added)
}

func TestRefreshEndpointReturnsStats(t *testing.T) {
	f := newControllerFixture()

	f.rbacSvc.On("RequirePermission", tmock.Anything, "payments", "owner1", model.PermSyncData).Return(nil)
	f.auditSvc.On("RefreshData", tmock.Anything, ctrlKey, "owner1").
		Return(&model.ReconciliationStats{
			Application: ctrlKey.Application,
			Frequency:   ctrlKey.Frequency,
			Period:      ctrlKey.Period,
		}, nil)

	w := f.do("POST", "/audits/payments/quarterly/2026-Q2/refresh", "owner1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	f.auditSvc.AssertExpectations(t)
}

func TestSyncUpstreamOutageMapsTo502(t *testing.T) {
	f := newControllerFixture()

	f.rbacSvc.On("RequirePermission", tmock.Anything, "payments", "owner1", model.PermSyncData).Return(nil)
	f.auditSvc.On("SyncData", tmock.Anything, ctrlKey).
		Return(nil, argus_errors.ErrUpstreamUnavailable)

	w := f.do("POST", "/audits/payments/quarterly/2026-Q2/sync", "owner1", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPurgeAuditEndpoint(t *testing.T) {
	f := newControllerFixture()

	f.rbacSvc.On("RequirePermission", tmock.Anything, "payments", "manager1", model.PermPurgeAudit).Return(nil)
	f.auditSvc.On("Purge", tmock.Anything, ctrlKey, "manager1").Return(nil)

	w := f.do("DELETE", "/audits/payments/quarterly/2026-Q2", "manager1", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestListAuditsRequiresApplication(t *testing.T) {
	f := newControllerFixture()

	w := f.do("GET", "/audits", "user1", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// api/model/audit_test.go
package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dev-mohitbeniwal/argus/api/model"
)

func TestProgressOrdering(t *testing.T) {
	assert.True(t, model.ProgressDetailsUnderReview.IsForwardOf(model.ProgressAuditStarted))
	assert.True(t, model.ProgressCompleted.IsForwardOf(model.ProgressSummaryGenerated))
	assert.False(t, model.ProgressDetailsUnderReview.IsForwardOf(model.ProgressFinalSignOffDone))
	assert.False(t, model.ProgressAuditStarted.IsForwardOf(model.ProgressAuditStarted))
}

func TestParseProgressRejectsUnknownState(t *testing.T) {
	p, err := model.ParseProgress("final_sign_off_done")
	assert.NoError(t, err)
	assert.Equal(t, model.ProgressFinalSignOffDone, p)

	_, err = model.ParseProgress("half_done")
	assert.Error(t, err)
}

func TestAuditKeyString(t *testing.T) {
	key := model.AuditKey{Application: "payments", Frequency: "quarterly", Period: "2026-Q2"}
	assert.Equal(t, "payments|quarterly|2026-Q2", key.String())
}

func TestFreshRecordPending(t *testing.T) {
	fresh := model.FreshRecord{
		Application: "payments",
		Frequency:   "quarterly",
		Period:      "2026-Q2",
		Source:      model.SourceCodeHost,
		Kind:        model.KindServiceAccount,
		AccountID:   "svc-deploy",
		Role:        "admin",
	}
	record := fresh.Pending()
	assert.Equal(t, model.SignOffPending, record.SignOff)
	assert.Equal(t, "svc-deploy", record.AccountID)
	assert.Empty(t, record.TicketKey)
	assert.Nil(t, record.DecidedAt)
}

func TestRoleMatrix(t *testing.T) {
	assert.True(t, model.RoleAllows(model.RoleApplicationUser, model.PermViewAudit))
	assert.False(t, model.RoleAllows(model.RoleApplicationUser, model.PermRecordDecision))
	assert.True(t, model.RoleAllows(model.RoleDelegate, model.PermRecordDecision))
	assert.False(t, model.RoleAllows(model.RoleDelegate, model.PermInitiateAudit))
	assert.True(t, model.RoleAllows(model.RoleAppOwner, model.PermManageRoles))
	assert.True(t, model.RoleAllows(model.RoleComplianceManager, model.PermCompleteAudit))
	assert.False(t, model.RoleAllows(model.Role("superuser"), model.PermViewAudit))
}

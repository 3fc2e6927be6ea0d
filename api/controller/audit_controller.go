// api/controller/audit_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	argus_errors "github.com/dev-mohitbeniwal/argus/api/errors"
	"github.com/dev-mohitbeniwal/argus/api/model"
	"github.com/dev-mohitbeniwal/argus/api/service"
	"github.com/dev-mohitbeniwal/argus/api/util"
	helper_util "github.com/dev-mohitbeniwal/argus/api/util/helper"
)

type AuditController struct {
	auditService          service.IAuditService
	reconciliationService service.IReconciliationService
	rbacService           service.IRBACService
}

func NewAuditController(auditService service.IAuditService, reconciliationService service.IReconciliationService, rbacService service.IRBACService) *AuditController {
	return &AuditController{
		auditService:          auditService,
		reconciliationService: reconciliationService,
		rbacService:           rbacService,
	}
}

// RegisterRoutes registers the API routes
func (ac *AuditController) RegisterRoutes(r *gin.RouterGroup) {
	audits := r.Group("/audits")
	{
		audits.POST("", ac.InitiateAudit)
		audits.GET("", ac.ListAudits)
		audits.GET("/:application/:frequency/:period", ac.GetAudit)
		audits.DELETE("/:application/:frequency/:period", ac.PurgeAudit)
		audits.PUT("/:application/:frequency/:period/progress", ac.AdvanceProgress)
		audits.POST("/:application/:frequency/:period/complete", ac.CompleteAudit)
		audits.POST("/:application/:frequency/:period/sync", ac.SyncData)
		audits.POST("/:application/:frequency/:period/refresh", ac.RefreshData)
		audits.GET("/:application/:frequency/:period/stats", ac.GetStats)
		audits.GET("/:application/:frequency/:period/records", ac.ListRecords)
		audits.PUT("/:application/:frequency/:period/records/:source/:account/decision", ac.RecordDecision)
	}
}

func auditKeyFromPath(c *gin.Context) model.AuditKey {
	return model.AuditKey{
		Application: c.Param("application"),
		Frequency:   c.Param("frequency"),
		Period:      c.Param("period"),
	}
}

// respondAuditError translates domain errors into HTTP status codes.
func respondAuditError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, argus_errors.ErrAuditNotFound), errors.Is(err, argus_errors.ErrRecordNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Not found", err)
	case errors.Is(err, argus_errors.ErrAuditConflict):
		util.RespondWithError(c, http.StatusConflict, "Audit already exists for this period", err)
	case errors.Is(err, argus_errors.ErrAuditCompleted), errors.Is(err, argus_errors.ErrInvalidTransition):
		util.RespondWithError(c, http.StatusConflict, err.Error(), err)
	case errors.Is(err, argus_errors.ErrInvalidArgument), errors.Is(err, argus_errors.ErrInvalidPagination), errors.Is(err, argus_errors.ErrInvalidRecordData):
		util.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, argus_errors.ErrUnauthorized):
		util.RespondWithError(c, http.StatusForbidden, "Permission denied", err)
	case errors.Is(err, argus_errors.ErrUpstreamUnavailable):
		util.RespondWithError(c, http.StatusBadGateway, "Upstream system unavailable", err)
	case errors.Is(err, argus_errors.ErrDatabaseOperation):
		util.RespondWithError(c, http.StatusInternalServerError, "Database operation failed", err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, fallback, err)
	}
}

type initiateAuditRequest struct {
	Application string `json:"application" binding:"required"`
	Frequency   string `json:"frequency" binding:"required"`
	Period      string `json:"period" binding:"required"`
}

// InitiateAudit endpoint
func (ac *AuditController) InitiateAudit(c *gin.Context) {
	var req initiateAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid audit data", err)
		return
	}
	username, err := util.GetUsernameFromContext(c)
	if err != nil || username == "" {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", argus_errors.ErrUnauthorized)
		return
	}

	if err := ac.rbacService.RequirePermission(c, req.Application, username, model.PermInitiateAudit); err != nil {
		respondAuditError(c, err, "Authorization failed")
		return
	}

	key := model.AuditKey{Application: req.Application, Frequency: req.Frequency, Period: req.Period}
	audit, err := ac.auditService.Initiate(c, key, username)
	if err != nil {
		respondAuditError(c, err, "Failed to initiate audit")
		return
	}

	c.JSON(http.StatusCreated, audit)
}

// GetAudit endpoint
func (ac *AuditController) GetAudit(c *gin.Context) {
	key := auditKeyFromPath(c)
	username, _ := util.GetUsernameFromContext(c)

	if err := ac.rbacService.RequirePermission(c, key.Application, username, model.PermViewAudit); err != nil {
		respondAuditError(c, err, "Authorization failed")
		return
	}

	audit, err := ac.auditService.GetAudit(c, key)
	if err != nil {
		respondAuditError(c, err, "Failed to retrieve audit")
		return
	}

	c.JSON(http.StatusOK, audit)
}

// ListAudits endpoint
func (ac *AuditController) ListAudits(c *gin.Context) {
	app := c.Query("application")
	if app == "" {
		util.RespondWithError(c, http.StatusBadRequest, "application query parameter is required", argus_errors.ErrInvalidArgument)
		return
	}
	username, _ := util.GetUsernameFromContext(c)
	if err := ac.rbacService.RequirePermission(c, app, username, model.PermViewAudit); err != nil {
		respondAuditError(c, err, "Authorization failed")
		return
	}

	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	audits, err := ac.auditService.ListAudits(c, app, limit, offset)
	if err != nil {
		respondAuditError(c, err, "Failed to list audits")
		return
	}

	c.JSON(http.StatusOK, audits)
}

type advanceProgressRequest struct {
	Progress string `json:"progress" binding:"required"`
}

// AdvanceProgress endpoint
func (ac *AuditController) AdvanceProgress(c *gin.Context) {
	key := auditKeyFromPath(c)
	var req advanceProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid progress data", err)
		return
	}
	username, _ := util.GetUsernameFromContext(c)

	if err := ac.rbacService.RequirePermission(c, key.Application, username, model.PermAdvanceProgress); err != nil {
		respondAuditError(c, err, "Authorization failed")
		return
	}

	audit, err := ac.auditService.AdvanceProgress(c, key, req.Progress, username)
	if err != nil {
		respondAuditError(c, err, "Failed to advance audit progress")
		return
	}

	c.JSON(http.StatusOK, audit)
}

// CompleteAudit endpoint
func (ac *AuditController) CompleteAudit(c *gin.Context) {
	key := auditKeyFromPath(c)
	username, _ := util.GetUsernameFromContext(c)

	if err := ac.rbacService.RequirePermission(c, key.Application, username, model.PermCompleteAudit); err != nil {
		respondAuditError(c, err, "Authorization failed")
		return
	}

	audit, err := ac.auditService.Complete(c, key, username)
	if err != nil {
		respondAuditError(c, err, "Failed to complete audit")
		return
	}

	c.JSON(http.StatusOK, audit)
}

// SyncData endpoint
func (ac *AuditController) SyncData(c *gin.Context) {
	key := auditKeyFromPath(c)
	username, _ := util.GetUsernameFromContext(c)

	if err := ac.rbacService.RequirePermission(c, key.Application, username, model.PermSyncData); err != nil {
		respondAuditError(c, err, "Authorization failed")
		return
	}

	stats, err := ac.auditService.SyncData(c, key)
	if err != nil {
		respondAuditError(c, err, "Failed to sync access data")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// RefreshData endpoint
func (ac *AuditController) RefreshData(c *gin.Context) {
	key := auditKeyFromPath(c)
	username, _ := util.GetUsernameFromContext(c)

	if err := ac.rbacService.RequirePermission(c, key.Application, username, model.PermSyncData); err != nil {
		respondAuditError(c, err, "Authorization failed")
		return
	}

	stats, err := ac.auditService.RefreshData(c, key, username)
	if err != nil {
		respondAuditError(c, err, "Failed to refresh audit data")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetStats endpoint
func (ac *AuditController) GetStats(c *gin.Context) {
	key := auditKeyFromPath(c)
	username, _ := util.GetUsernameFromContext(c)

	if err := ac.rbacService.RequirePermission(c, key.Application, username, model.PermViewAudit); err != nil {
		respondAuditError(c, err, "Authorization failed")
		return
	}

	stats, err := ac.reconciliationService.Stats(c, key)
	if err != nil {
		respondAuditError(c, err, "Failed to compute reconciliation stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListRecords endpoint
func (ac *AuditController) ListRecords(c *gin.Context) {
	key := auditKeyFromPath(c)
	username, _ := util.GetUsernameFromContext(c)

	if err := ac.rbacService.RequirePermission(c, key.Application, username, model.PermViewAudit); err != nil {
		respondAuditError(c, err, "Authorization failed")
		return
	}

	records, err := ac.auditService.ListRecords(c, key, model.Source(c.Query("source")))
	if err != nil {
		respondAuditError(c, err, "Failed to list access records")
		return
	}

	c.JSON(http.StatusOK, records)
}

type recordDecisionRequest struct {
	Status  string `json:"status" binding:"required"`
	Comment string `json:"comment"`
}

// RecordDecision endpoint
func (ac *AuditController) RecordDecision(c *gin.Context) {
	key := model.RecordKey{
		AuditKey:  auditKeyFromPath(c),
		Source:    model.Source(c.Param("source")),
		AccountID: c.Param("account"),
	}
	var req recordDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid decision data", err)
		return
	}
	username, _ := util.GetUsernameFromContext(c)

	if err := ac.rbacService.RequirePermission(c, key.Application, username, model.PermRecordDecision); err != nil {
		respondAuditError(c, err, "Authorization failed")
		return
	}

	record, err := ac.auditService.RecordDecision(c, key, model.SignOffStatus(req.Status), username, req.Comment)
	if err != nil {
		respondAuditError(c, err, "Failed to record decision")
		return
	}

	c.JSON(http.StatusOK, record)
}

// PurgeAudit endpoint
func (ac *AuditController) PurgeAudit(c *gin.Context) {
	key := auditKeyFromPath(c)
	username, _ := util.GetUsernameFromContext(c)

	if err := ac.rbacService.RequirePermission(c, key.Application, username, model.PermPurgeAudit); err != nil {
		respondAuditError(c, err, "Authorization failed")
		return
	}

	if err := ac.auditService.Purge(c, key, username); err != nil {
		respondAuditError(c, err, "Failed to purge audit")
		return
	}

	c.Status(http.StatusNoContent)
}

// api/controller/activity_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dev-mohitbeniwal/argus/api/activity"
	argus_errors "github.com/dev-mohitbeniwal/argus/api/errors"
	"github.com/dev-mohitbeniwal/argus/api/model"
	"github.com/dev-mohitbeniwal/argus/api/service"
	"github.com/dev-mohitbeniwal/argus/api/util"
	helper_util "github.com/dev-mohitbeniwal/argus/api/util/helper"
)

type ActivityController struct {
	activityService activity.Service
	rbacService     service.IRBACService
}

func NewActivityController(activityService activity.Service, rbacService service.IRBACService) *ActivityController {
	return &ActivityController{
		activityService: activityService,
		rbacService:     rbacService,
	}
}

// RegisterRoutes registers the API routes
func (ac *ActivityController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/activity", ac.QueryEvents)
}

// QueryEvents endpoint
func (ac *ActivityController) QueryEvents(c *gin.Context) {
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

	events, err := ac.activityService.QueryEvents(c, activity.Query{
		Application: app,
		Frequency:   c.Query("frequency"),
		Period:      c.Query("period"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to query activity events", err)
		return
	}

	c.JSON(http.StatusOK, events)
}

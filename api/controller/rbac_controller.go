// api/controller/rbac_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	argus_errors "github.com/dev-mohitbeniwal/argus/api/errors"
	"github.com/dev-mohitbeniwal/argus/api/model"
	"github.com/dev-mohitbeniwal/argus/api/service"
	"github.com/dev-mohitbeniwal/argus/api/util"
)

type RBACController struct {
	rbacService service.IRBACService
}

func NewRBACController(rbacService service.IRBACService) *RBACController {
	return &RBACController{
		rbacService: rbacService,
	}
}

// RegisterRoutes registers the API routes
func (rc *RBACController) RegisterRoutes(r *gin.RouterGroup) {
	roles := r.Group("/applications/:application/roles")
	{
		roles.POST("", rc.AssignRole)
		roles.GET("/:username", rc.ListRoles)
		roles.DELETE("/:username/:role", rc.RemoveRole)
	}
}

func respondRBACError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, argus_errors.ErrUnauthorized):
		util.RespondWithError(c, http.StatusForbidden, "Permission denied", err)
	case errors.Is(err, argus_errors.ErrRoleNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Role assignment not found", err)
	case errors.Is(err, argus_errors.ErrInvalidRoleData), errors.Is(err, argus_errors.ErrInvalidArgument):
		util.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, fallback, err)
	}
}

type assignRoleRequest struct {
	Username string `json:"username" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// AssignRole endpoint
func (rc *RBACController) AssignRole(c *gin.Context) {
	app := c.Param("application")
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid role assignment data", err)
		return
	}
	username, err := util.GetUsernameFromContext(c)
	if err != nil || username == "" {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", argus_errors.ErrUnauthorized)
		return
	}

	if err := rc.rbacService.AssignRole(c, app, req.Username, model.Role(req.Role), username); err != nil {
		respondRBACError(c, err, "Failed to assign role")
		return
	}

	c.Status(http.StatusCreated)
}

// RemoveRole endpoint
func (rc *RBACController) RemoveRole(c *gin.Context) {
	app := c.Param("application")
	username, _ := util.GetUsernameFromContext(c)

	if err := rc.rbacService.RemoveRole(c, app, c.Param("username"), model.Role(c.Param("role")), username); err != nil {
		respondRBACError(c, err, "Failed to remove role")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListRoles endpoint
func (rc *RBACController) ListRoles(c *gin.Context) {
	app := c.Param("application")
	subject := c.Param("username")
	username, _ := util.GetUsernameFromContext(c)

	// Anyone may read their own assignments; reading another user's requires
	// the view permission.
	if subject != username {
		if err := rc.rbacService.RequirePermission(c, app, username, model.PermViewAudit); err != nil {
			respondRBACError(c, err, "Authorization failed")
			return
		}
	}

	roles, err := rc.rbacService.ListRoles(c, app, subject)
	if err != nil {
		respondRBACError(c, err, "Failed to list roles")
		return
	}

	c.JSON(http.StatusOK, gin.H{"application": app, "username": subject, "roles": roles})
}

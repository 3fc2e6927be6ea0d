// api/service/rbac_service.go
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
)

type IRBACService interface {
	Authorize(ctx context.Context, app, username string, permission model.Permission) (bool, error)
	RequirePermission(ctx context.Context, app, username string, permission model.Permission) error
	AssignRole(ctx context.Context, app, username string, role model.Role, actor string) error
	RemoveRole(ctx context.Context, app, username string, role model.Role, actor string) error
	ListRoles(ctx context.Context, app, username string) ([]model.Role, error)
}

// RBACService resolves a caller's roles for an application and authorizes
// operations against the static role→permission matrix.
type RBACService struct {
	roleDAO     dao.IRoleDAO
	activitySvc activity.Service
}

func NewRBACService(roleDAO dao.IRoleDAO, activitySvc activity.Service) *RBACService {
	return &RBACService{
		roleDAO:     roleDAO,
		activitySvc: activitySvc,
	}
}

// Authorize unions the permission sets of every role assigned to the username
// for the application and tests membership. No role assignment means deny.
func (s *RBACService) Authorize(ctx context.Context, app, username string, permission model.Permission) (bool, error) {
	if app == "" || username == "" {
		return false, fmt.Errorf("%w: application and username are required", argus_errors.ErrInvalidArgument)
	}

	roles, err := s.roleDAO.ListRoles(ctx, app, username)
	if err != nil {
		logger.Error("Error resolving roles", zap.Error(err), zap.String("username", username))
		return false, fmt.Errorf("failed to resolve roles: %w", err)
	}

	for _, role := range roles {
		if model.RoleAllows(role, permission) {
			return true, nil
		}
	}
	return false, nil
}

// RequirePermission returns ErrUnauthorized when the caller lacks the
// permission, with enough detail to act on.
func (s *RBACService) RequirePermission(ctx context.Context, app, username string, permission model.Permission) error {
	allowed, err := s.Authorize(ctx, app, username, permission)
	if err != nil {
		return err
	}
	if !allowed {
		logger.Warn("Authorization denied",
			zap.String("application", app),
			zap.String("username", username),
			zap.String("permission", string(permission)))
		return fmt.Errorf("%w: %s requires %s on %s", argus_errors.ErrUnauthorized, username, permission, app)
	}
	return nil
}

// AssignRole grants a role. The actor must already hold manage_roles for the
// application; bootstrapping the first owner is an external provisioning step.
func (s *RBACService) AssignRole(ctx context.Context, app, username string, role model.Role, actor string) error {
	if err := s.RequirePermission(ctx, app, actor, model.PermManageRoles); err != nil {
		return err
	}
	if _, err := model.ParseRole(string(role)); err != nil {
		return fmt.Errorf("%w: %v", argus_errors.ErrInvalidRoleData, err)
	}

	assignment := model.RoleAssignment{
		Application: app,
		Username:    username,
		Role:        role,
		AssignedBy:  actor,
		AssignedAt:  time.Now(),
	}
	if err := s.roleDAO.AssignRole(ctx, assignment); err != nil {
		logger.Error("Error assigning role", zap.Error(err), zap.String("username", username))
		return fmt.Errorf("failed to assign role: %w", err)
	}

	event := activity.Event{
		Kind:        activity.RoleAssigned,
		Application: app,
		Actor:       actor,
		AccountID:   username,
		NewStatus:   string(role),
	}
	if err := s.activitySvc.Record(ctx, event); err != nil {
		logger.Error("Failed to record role assignment event", zap.Error(err))
	}

	logger.Info("Role assigned",
		zap.String("application", app),
		zap.String("username", username),
		zap.String("role", string(role)),
		zap.String("actor", actor))
	return nil
}

// RemoveRole deletes a role assignment if present.
func (s *RBACService) RemoveRole(ctx context.Context, app, username string, role model.Role, actor string) error {
	if err := s.RequirePermission(ctx, app, actor, model.PermManageRoles); err != nil {
		return err
	}

	if err := s.roleDAO.RemoveRole(ctx, app, username, role); err != nil {
		logger.Error("Error removing role", zap.Error(err), zap.String("username", username))
		return err
	}

	event := activity.Event{
		Kind:           activity.RoleRemoved,
		Application:    app,
		Actor:          actor,
		AccountID:      username,
		PreviousStatus: string(role),
	}
	if err := s.activitySvc.Record(ctx, event); err != nil {
		logger.Error("Failed to record role removal event", zap.Error(err))
	}

	logger.Info("Role removed",
		zap.String("application", app),
		zap.String("username", username),
		zap.String("role", string(role)),
		zap.String("actor", actor))
	return nil
}

// ListRoles returns the roles assigned to a username for an application.
func (s *RBACService) ListRoles(ctx context.Context, app, username string) ([]model.Role, error) {
	roles, err := s.roleDAO.ListRoles(ctx, app, username)
	if err != nil {
		logger.Error("Error listing roles", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// api/dao/role_dao.go
package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	argus_errors "github.com/dev-mohitbeniwal/argus/api/errors"
	logger "github.com/dev-mohitbeniwal/argus/api/logging"
	"github.com/dev-mohitbeniwal/argus/api/model"
)

// IRoleDAO is the persistence surface of the role-assignment table.
type IRoleDAO interface {
	AssignRole(ctx context.Context, assignment model.RoleAssignment) error
	RemoveRole(ctx context.Context, app, username string, role model.Role) error
	ListRoles(ctx context.Context, app, username string) ([]model.Role, error)
}

type RoleDAO struct {
	Driver neo4j.Driver
}

func NewRoleDAO(driver neo4j.Driver) *RoleDAO {
	dao := &RoleDAO{Driver: driver}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for RoleAssignment", zap.Error(err))
	}
	return dao
}

func (dao *RoleDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on RoleAssignment key")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_role_assignment IF NOT EXISTS
        FOR (ra:ROLE_ASSIGNMENT) REQUIRE ra.akey IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})

	if err != nil {
		logger.Error("Failed to ensure unique constraint on RoleAssignment key", zap.Error(err))
		return err
	}

	return nil
}

// AssignRole grants a role to a username for an application. The insert is
// idempotent: re-assigning an existing role is a no-op.
func (dao *RoleDAO) AssignRole(ctx context.Context, assignment model.RoleAssignment) error {
	start := time.Now()
	logger.Info("Assigning role",
		zap.String("application", assignment.Application),
		zap.String("username", assignment.Username),
		zap.String("role", string(assignment.Role)))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (ra:ROLE_ASSIGNMENT {akey: $akey})
        ON CREATE SET
            ra.application = $application,
            ra.username = $username,
            ra.role = $role,
            ra.assignedBy = $assignedBy,
            ra.assignedAt = $assignedAt
        `
		_, err := transaction.Run(query, map[string]interface{}{
			"akey":        assignmentKey(assignment.Application, assignment.Username, assignment.Role),
			"application": assignment.Application,
			"username":    assignment.Username,
			"role":        string(assignment.Role),
			"assignedBy":  assignment.AssignedBy,
			"assignedAt":  assignment.AssignedAt.Format(time.RFC3339),
		})
		if err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to assign role",
			zap.Error(err),
			zap.String("username", assignment.Username),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Role assigned successfully",
		zap.String("username", assignment.Username),
		zap.String("role", string(assignment.Role)),
		zap.Duration("duration", duration))
	return nil
}

// RemoveRole deletes a role assignment if it exists
func (dao *RoleDAO) RemoveRole(ctx context.Context, app, username string, role model.Role) error {
	start := time.Now()

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (ra:ROLE_ASSIGNMENT {akey: $akey})
        DELETE ra
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"akey": assignmentKey(app, username, role),
		})
		if err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}
		summary, err := result.Consume()
		if err != nil {
			return nil, fmt.Errorf("failed to consume delete result: %w", err)
		}
		if summary.Counters().NodesDeleted() == 0 {
			return nil, argus_errors.ErrRoleNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to remove role",
			zap.Error(err),
			zap.String("username", username),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Role removed successfully",
		zap.String("username", username),
		zap.String("role", string(role)),
		zap.Duration("duration", duration))
	return nil
}

// ListRoles returns every role assigned to a username for an application
func (dao *RoleDAO) ListRoles(ctx context.Context, app, username string) ([]model.Role, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (ra:ROLE_ASSIGNMENT {application: $application, username: $username})
    RETURN ra.role AS role
    ORDER BY ra.role
    `
	result, err := session.Run(query, map[string]interface{}{
		"application": app,
		"username":    username,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute list roles query: %w", err)
	}

	var roles []model.Role
	for result.Next() {
		value, found := result.Record().Get("role")
		if !found {
			continue
		}
		name, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("failed to assert type for role: %v", value)
		}
		roles = append(roles, model.Role(name))
	}
	return roles, nil
}

func assignmentKey(app, username string, role model.Role) string {
	return fmt.Sprintf("%s|%s|%s", app, username, role)
}

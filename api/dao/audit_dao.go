// api/dao/audit_dao.go
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
	helper_util "github.com/dev-mohitbeniwal/argus/api/util/helper"
)

// IAuditDAO is the persistence surface of the audit lifecycle table.
type IAuditDAO interface {
	CreateAudit(ctx context.Context, audit model.Audit) error
	GetAudit(ctx context.Context, key model.AuditKey) (*model.Audit, error)
	ListAudits(ctx context.Context, app string, limit, offset int) ([]*model.Audit, error)
	UpdateProgress(ctx context.Context, key model.AuditKey, progress model.Progress, status model.AuditStatus) error
	UpdateAuditTicket(ctx context.Context, key model.AuditKey, ticketKey, status string) error
	SetCompleted(ctx context.Context, key model.AuditKey, actor string, at time.Time) error
	DeleteAudit(ctx context.Context, key model.AuditKey) error
}

type AuditDAO struct {
	Driver neo4j.Driver
}

func NewAuditDAO(driver neo4j.Driver) *AuditDAO {
	dao := &AuditDAO{Driver: driver}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint", zap.Error(err))
	}
	return dao
}

// EnsureUniqueConstraint ensures the unique constraint on the audit key
func (dao *AuditDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on Audit key")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("Failed to close Neo4j session", zap.Error(err))
		}
	}()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_audit_key IF NOT EXISTS
        FOR (a:AUDIT) REQUIRE a.key IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		if err != nil {
			logger.Error("Failed to create unique constraint", zap.Error(err))
			return nil, fmt.Errorf("failed to create unique constraint: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on Audit key", zap.Error(err))
		return err
	}

	return nil
}

// CreateAudit creates a new audit node; a second audit for the same key is a conflict.
func (dao *AuditDAO) CreateAudit(ctx context.Context, audit model.Audit) error {
	start := time.Now()
	key := audit.Key()
	logger.Info("Creating new audit", zap.String("auditKey", key.String()))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		checkQuery := `
        MATCH (a:AUDIT {key: $key})
        RETURN a.key
        `
		checkResult, err := transaction.Run(checkQuery, map[string]interface{}{"key": key.String()})
		if err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}
		if checkResult.Next() {
			return nil, argus_errors.ErrAuditConflict
		}

		createQuery := `
        CREATE (a:AUDIT {key: $key})
        SET a += $props
        RETURN a.key as key
        `
		parameters := map[string]interface{}{
			"key": key.String(),
			"props": map[string]interface{}{
				"application":  audit.Application,
				"frequency":    audit.Frequency,
				"period":       audit.Period,
				"progress":     string(audit.Progress),
				"status":       string(audit.Status),
				"ticketKey":    audit.TicketKey,
				"ticketStatus": audit.TicketStatus,
				"initiatedBy":  audit.InitiatedBy,
				"completedBy":  audit.CompletedBy,
				"createdAt":    audit.CreatedAt.Format(time.RFC3339),
				"updatedAt":    audit.UpdatedAt.Format(time.RFC3339),
			},
		}
		createResult, err := transaction.Run(createQuery, parameters)
		if err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}
		if createResult.Next() {
			return nil, nil
		}
		return nil, argus_errors.ErrInternalServer
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create audit",
			zap.Error(err),
			zap.String("auditKey", key.String()),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Audit created successfully",
		zap.String("auditKey", key.String()),
		zap.Duration("duration", duration))
	return nil
}

// GetAudit retrieves an audit by its composite key
func (dao *AuditDAO) GetAudit(ctx context.Context, key model.AuditKey) (*model.Audit, error) {
	start := time.Now()

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (a:AUDIT {key: $key})
    RETURN a
    `
	result, err := session.Run(query, map[string]interface{}{"key": key.String()})
	if err != nil {
		logger.Error("Failed to execute get audit query",
			zap.Error(err),
			zap.String("auditKey", key.String()),
			zap.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to execute get audit query: %w", err)
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		audit, err := mapNodeToAudit(node)
		if err != nil {
			return nil, fmt.Errorf("failed to map audit node to struct: %w", err)
		}
		return audit, nil
	}

	logger.Warn("Audit not found",
		zap.String("auditKey", key.String()),
		zap.Duration("duration", time.Since(start)))
	return nil, argus_errors.ErrAuditNotFound
}

// ListAudits retrieves audits for an application with pagination
func (dao *AuditDAO) ListAudits(ctx context.Context, app string, limit, offset int) ([]*model.Audit, error) {
	start := time.Now()
	logger.Info("Listing audits", zap.String("application", app), zap.Int("limit", limit), zap.Int("offset", offset))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (a:AUDIT {application: $application})
    RETURN a
    ORDER BY a.createdAt DESC
    SKIP $offset
    LIMIT $limit
    `
	result, err := session.Run(query, map[string]interface{}{
		"application": app,
		"limit":       limit,
		"offset":      offset,
	})
	if err != nil {
		logger.Error("Failed to execute list audits query",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to execute list audits query: %w", err)
	}

	var audits []*model.Audit
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		audit, err := mapNodeToAudit(node)
		if err != nil {
			return nil, fmt.Errorf("failed to map audit node to struct: %w", err)
		}
		audits = append(audits, audit)
	}

	logger.Info("Audits listed successfully",
		zap.Int("count", len(audits)),
		zap.Duration("duration", time.Since(start)))
	return audits, nil
}

// UpdateProgress moves an audit to a new lifecycle state. Transition legality
// is validated by the lifecycle manager, not here.
func (dao *AuditDAO) UpdateProgress(ctx context.Context, key model.AuditKey, progress model.Progress, status model.AuditStatus) error {
	start := time.Now()

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (a:AUDIT {key: $key})
        SET a.progress = $progress, a.status = $status, a.updatedAt = $updatedAt
        RETURN a.key
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"key":       key.String(),
			"progress":  string(progress),
			"status":    string(status),
			"updatedAt": time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, argus_errors.ErrAuditNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update audit progress",
			zap.Error(err),
			zap.String("auditKey", key.String()),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Audit progress updated",
		zap.String("auditKey", key.String()),
		zap.String("progress", string(progress)),
		zap.Duration("duration", duration))
	return nil
}

// UpdateAuditTicket stores the tracker ticket key and status on the audit
func (dao *AuditDAO) UpdateAuditTicket(ctx context.Context, key model.AuditKey, ticketKey, status string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (a:AUDIT {key: $key})
        SET a.ticketKey = $ticketKey, a.ticketStatus = $ticketStatus, a.updatedAt = $updatedAt
        RETURN a.key
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"key":          key.String(),
			"ticketKey":    ticketKey,
			"ticketStatus": status,
			"updatedAt":    time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, argus_errors.ErrAuditNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to update audit ticket",
			zap.Error(err),
			zap.String("auditKey", key.String()),
			zap.String("ticketKey", ticketKey))
		return err
	}
	return nil
}

// SetCompleted marks the audit terminal and records the completing actor
func (dao *AuditDAO) SetCompleted(ctx context.Context, key model.AuditKey, actor string, at time.Time) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (a:AUDIT {key: $key})
        SET a.progress = $progress, a.status = $status,
            a.completedBy = $completedBy, a.completedAt = $completedAt, a.updatedAt = $updatedAt
        RETURN a.key
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"key":         key.String(),
			"progress":    string(model.ProgressCompleted),
			"status":      string(model.StatusCompleted),
			"completedBy": actor,
			"completedAt": at.Format(time.RFC3339),
			"updatedAt":   at.Format(time.RFC3339),
		})
		if err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, argus_errors.ErrAuditNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to complete audit",
			zap.Error(err),
			zap.String("auditKey", key.String()))
		return err
	}

	logger.Info("Audit completed", zap.String("auditKey", key.String()), zap.String("completedBy", actor))
	return nil
}

// DeleteAudit removes the audit node. Used only by administrative purge.
func (dao *AuditDAO) DeleteAudit(ctx context.Context, key model.AuditKey) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (a:AUDIT {key: $key})
        DETACH DELETE a
        `
		result, err := transaction.Run(query, map[string]interface{}{"key": key.String()})
		if err != nil {
			return nil, fmt.Errorf("failed to execute delete query: %w", err)
		}
		summary, err := result.Consume()
		if err != nil {
			return nil, fmt.Errorf("failed to consume delete result: %w", err)
		}
		if summary.Counters().NodesDeleted() == 0 {
			return nil, argus_errors.ErrAuditNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to delete audit",
			zap.Error(err),
			zap.String("auditKey", key.String()))
		return err
	}

	logger.Info("Audit deleted", zap.String("auditKey", key.String()))
	return nil
}

// Helper function to map Neo4j Node to Audit struct
func mapNodeToAudit(node neo4j.Node) (*model.Audit, error) {
	props := node.Props
	audit := &model.Audit{}

	if application, ok := props["application"].(string); ok {
		audit.Application = application
	} else {
		return nil, fmt.Errorf("failed to assert type for audit application: %v", props["application"])
	}
	if frequency, ok := props["frequency"].(string); ok {
		audit.Frequency = frequency
	} else {
		return nil, fmt.Errorf("failed to assert type for audit frequency: %v", props["frequency"])
	}
	if period, ok := props["period"].(string); ok {
		audit.Period = period
	} else {
		return nil, fmt.Errorf("failed to assert type for audit period: %v", props["period"])
	}
	if progress, ok := props["progress"].(string); ok {
		audit.Progress = model.Progress(progress)
	} else {
		return nil, fmt.Errorf("failed to assert type for audit progress: %v", props["progress"])
	}
	if status, ok := props["status"].(string); ok {
		audit.Status = model.AuditStatus(status)
	}
	if ticketKey, ok := props["ticketKey"].(string); ok {
		audit.TicketKey = ticketKey
	}
	if ticketStatus, ok := props["ticketStatus"].(string); ok {
		audit.TicketStatus = ticketStatus
	}
	if initiatedBy, ok := props["initiatedBy"].(string); ok {
		audit.InitiatedBy = initiatedBy
	}
	if completedBy, ok := props["completedBy"].(string); ok {
		audit.CompletedBy = completedBy
	}
	if createdAt, ok := props["createdAt"].(string); ok {
		if t, err := helper_util.ParseTime(createdAt); err == nil {
			audit.CreatedAt = t
		}
	}
	if updatedAt, ok := props["updatedAt"].(string); ok {
		if t, err := helper_util.ParseTime(updatedAt); err == nil {
			audit.UpdatedAt = t
		}
	}
	if completedAt, ok := props["completedAt"]; ok {
		if t, err := helper_util.ParseNullableTime(completedAt); err == nil {
			audit.CompletedAt = t
		}
	}

	return audit, nil
}

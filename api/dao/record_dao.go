// api/dao/record_dao.go
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

// IRecordDAO is the persistence surface of the authoritative review table,
// the transient fresh-snapshot table and the manual-entry staging table.
type IRecordDAO interface {
	ReplaceFreshSnapshot(ctx context.Context, key model.AuditKey, records []model.FreshRecord) error
	SeedPendingFromFresh(ctx context.Context, key model.AuditKey) error
	DeleteAuthoritative(ctx context.Context, key model.AuditKey) error
	GetRecord(ctx context.Context, key model.RecordKey) (*model.AccessRecord, error)
	UpdateDecision(ctx context.Context, key model.RecordKey, status model.SignOffStatus, actor, comment string, clearTicket bool, decidedAt time.Time) error
	UpdateRecordTicket(ctx context.Context, key model.RecordKey, ticketKey, status string) error
	ListRecords(ctx context.Context, key model.AuditKey, src model.Source) ([]model.AccessRecord, error)
	ListFresh(ctx context.Context, key model.AuditKey) ([]model.FreshRecord, error)
	ListTicketedRecords(ctx context.Context, key model.AuditKey) ([]model.AccessRecord, error)
	ListManualEntries(ctx context.Context, app, frequency, period string) ([]model.FreshRecord, error)
}

type RecordDAO struct {
	Driver neo4j.Driver
}

func NewRecordDAO(driver neo4j.Driver) *RecordDAO {
	dao := &RecordDAO{Driver: driver}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint", zap.Error(err))
	}
	return dao
}

// EnsureUniqueConstraint ensures the unique constraint on the record key tuple
func (dao *RecordDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on AccessRecord key")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("Failed to close Neo4j session", zap.Error(err))
		}
	}()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_access_record_key IF NOT EXISTS
        FOR (r:ACCESS_RECORD) REQUIRE r.rkey IS UNIQUE
        `
		if _, err := transaction.Run(query, nil); err != nil {
			return nil, fmt.Errorf("failed to create unique constraint: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on AccessRecord key", zap.Error(err))
		return err
	}
	return nil
}

// ReplaceFreshSnapshot atomically replaces the fresh-snapshot table for the
// audit key: the prior contents are deleted and the new rows inserted inside
// one write transaction, so a failure leaves the old snapshot fully intact.
func (dao *RecordDAO) ReplaceFreshSnapshot(ctx context.Context, key model.AuditKey, records []model.FreshRecord) error {
	start := time.Now()
	logger.Info("Replacing fresh snapshot",
		zap.String("auditKey", key.String()),
		zap.Int("records", len(records)))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	rows := make([]map[string]interface{}, len(records))
	for i, r := range records {
		rows[i] = map[string]interface{}{
			"rkey":        recordKeyString(key, r.Source, r.AccountID),
			"application": r.Application,
			"frequency":   r.Frequency,
			"period":      r.Period,
			"source":      string(r.Source),
			"kind":        string(r.Kind),
			"accountId":   r.AccountID,
			"role":        r.Role,
			"manager":     r.Manager,
			"delegate":    r.Delegate,
			"fetchedAt":   r.FetchedAt.Format(time.RFC3339),
		}
	}

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		deleteQuery := `
        MATCH (f:FRESH_RECORD {application: $application, frequency: $frequency, period: $period})
        DELETE f
        `
		if _, err := transaction.Run(deleteQuery, map[string]interface{}{
			"application": key.Application,
			"frequency":   key.Frequency,
			"period":      key.Period,
		}); err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}

		insertQuery := `
        UNWIND $rows AS row
        CREATE (f:FRESH_RECORD)
        SET f = row
        `
		if _, err := transaction.Run(insertQuery, map[string]interface{}{"rows": rows}); err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to replace fresh snapshot",
			zap.Error(err),
			zap.String("auditKey", key.String()),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Fresh snapshot replaced",
		zap.String("auditKey", key.String()),
		zap.Int("records", len(records)),
		zap.Duration("duration", duration))
	return nil
}

// SeedPendingFromFresh replaces the authoritative review rows for the audit
// key with pending rows copied from the current fresh snapshot, inside one
// write transaction.
func (dao *RecordDAO) SeedPendingFromFresh(ctx context.Context, key model.AuditKey) error {
	start := time.Now()

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		deleteQuery := `
        MATCH (r:ACCESS_RECORD {application: $application, frequency: $frequency, period: $period})
        DELETE r
        `
		params := map[string]interface{}{
			"application": key.Application,
			"frequency":   key.Frequency,
			"period":      key.Period,
		}
		if _, err := transaction.Run(deleteQuery, params); err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}

		copyQuery := `
        MATCH (f:FRESH_RECORD {application: $application, frequency: $frequency, period: $period})
        CREATE (r:ACCESS_RECORD {
            rkey: f.rkey,
            application: f.application,
            frequency: f.frequency,
            period: f.period,
            source: f.source,
            kind: f.kind,
            accountId: f.accountId,
            role: f.role,
            manager: f.manager,
            delegate: f.delegate,
            signOffStatus: $pending,
            ticketKey: "",
            ticketStatus: "",
            comment: ""
        })
        `
		params["pending"] = string(model.SignOffPending)
		if _, err := transaction.Run(copyQuery, params); err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to seed pending records from fresh snapshot",
			zap.Error(err),
			zap.String("auditKey", key.String()),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Pending review rows seeded from fresh snapshot",
		zap.String("auditKey", key.String()),
		zap.Duration("duration", duration))
	return nil
}

// DeleteAuthoritative clears all authoritative review rows for the audit key
func (dao *RecordDAO) DeleteAuthoritative(ctx context.Context, key model.AuditKey) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (r:ACCESS_RECORD {application: $application, frequency: $frequency, period: $period})
        DELETE r
        `
		if _, err := transaction.Run(query, map[string]interface{}{
			"application": key.Application,
			"frequency":   key.Frequency,
			"period":      key.Period,
		}); err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to delete authoritative records",
			zap.Error(err),
			zap.String("auditKey", key.String()))
		return err
	}
	return nil
}

// GetRecord retrieves one authoritative record by its key tuple
func (dao *RecordDAO) GetRecord(ctx context.Context, key model.RecordKey) (*model.AccessRecord, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (r:ACCESS_RECORD {rkey: $rkey})
    RETURN r
    `
	result, err := session.Run(query, map[string]interface{}{
		"rkey": recordKeyString(key.AuditKey, key.Source, key.AccountID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute get record query: %w", err)
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		record, err := mapNodeToRecord(node)
		if err != nil {
			return nil, fmt.Errorf("failed to map record node to struct: %w", err)
		}
		return record, nil
	}

	logger.Warn("Access record not found",
		zap.String("auditKey", key.AuditKey.String()),
		zap.String("accountID", key.AccountID))
	return nil, argus_errors.ErrRecordNotFound
}

// UpdateDecision writes the sign-off decision onto the record. When
// clearTicket is set the ticket reference, ticket status and comment are
// cleared in the same transaction, so an approved record never keeps an open
// ticket reference.
func (dao *RecordDAO) UpdateDecision(ctx context.Context, key model.RecordKey, status model.SignOffStatus, actor, comment string, clearTicket bool, decidedAt time.Time) error {
	start := time.Now()

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (r:ACCESS_RECORD {rkey: $rkey})
        SET r.signOffStatus = $status, r.decidedBy = $actor, r.decidedAt = $decidedAt, r.comment = $comment
        `
		if clearTicket {
			query += `
        SET r.ticketKey = "", r.ticketStatus = "", r.comment = ""
        `
		}
		query += `
        RETURN r.rkey
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"rkey":      recordKeyString(key.AuditKey, key.Source, key.AccountID),
			"status":    string(status),
			"actor":     actor,
			"comment":   comment,
			"decidedAt": decidedAt.Format(time.RFC3339),
		})
		if err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, argus_errors.ErrRecordNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update sign-off decision",
			zap.Error(err),
			zap.String("accountID", key.AccountID),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Sign-off decision recorded",
		zap.String("accountID", key.AccountID),
		zap.String("status", string(status)),
		zap.Duration("duration", duration))
	return nil
}

// UpdateRecordTicket stores the tracker ticket key and status on the record
func (dao *RecordDAO) UpdateRecordTicket(ctx context.Context, key model.RecordKey, ticketKey, status string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (r:ACCESS_RECORD {rkey: $rkey})
        SET r.ticketKey = $ticketKey, r.ticketStatus = $ticketStatus
        RETURN r.rkey
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"rkey":         recordKeyString(key.AuditKey, key.Source, key.AccountID),
			"ticketKey":    ticketKey,
			"ticketStatus": status,
		})
		if err != nil {
			return nil, argus_errors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, argus_errors.ErrRecordNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to update record ticket",
			zap.Error(err),
			zap.String("accountID", key.AccountID),
			zap.String("ticketKey", ticketKey))
		return err
	}
	return nil
}

// ListRecords retrieves the authoritative records for an audit key, optionally
// filtered to one source.
func (dao *RecordDAO) ListRecords(ctx context.Context, key model.AuditKey, src model.Source) ([]model.AccessRecord, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	params := map[string]interface{}{
		"application": key.Application,
		"frequency":   key.Frequency,
		"period":      key.Period,
	}
	query := `
    MATCH (r:ACCESS_RECORD {application: $application, frequency: $frequency, period: $period})
    `
	if src != "" {
		query += ` WHERE r.source = $source`
		params["source"] = string(src)
	}
	query += `
    RETURN r
    ORDER BY r.source, r.accountId
    `

	result, err := session.Run(query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to execute list records query: %w", err)
	}

	var records []model.AccessRecord
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		record, err := mapNodeToRecord(node)
		if err != nil {
			return nil, fmt.Errorf("failed to map record node to struct: %w", err)
		}
		records = append(records, *record)
	}
	return records, nil
}

// ListFresh retrieves the current fresh snapshot for an audit key
func (dao *RecordDAO) ListFresh(ctx context.Context, key model.AuditKey) ([]model.FreshRecord, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (f:FRESH_RECORD {application: $application, frequency: $frequency, period: $period})
    RETURN f
    ORDER BY f.source, f.accountId
    `
	result, err := session.Run(query, map[string]interface{}{
		"application": key.Application,
		"frequency":   key.Frequency,
		"period":      key.Period,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute list fresh query: %w", err)
	}

	var records []model.FreshRecord
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		record, err := mapNodeToFresh(node)
		if err != nil {
			return nil, fmt.Errorf("failed to map fresh node to struct: %w", err)
		}
		records = append(records, *record)
	}
	return records, nil
}

// ListTicketedRecords retrieves records carrying a ticket reference
func (dao *RecordDAO) ListTicketedRecords(ctx context.Context, key model.AuditKey) ([]model.AccessRecord, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (r:ACCESS_RECORD {application: $application, frequency: $frequency, period: $period})
    WHERE r.ticketKey <> ""
    RETURN r
    ORDER BY r.accountId
    `
	result, err := session.Run(query, map[string]interface{}{
		"application": key.Application,
		"frequency":   key.Frequency,
		"period":      key.Period,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute list ticketed records query: %w", err)
	}

	var records []model.AccessRecord
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		record, err := mapNodeToRecord(node)
		if err != nil {
			return nil, fmt.Errorf("failed to map record node to struct: %w", err)
		}
		records = append(records, *record)
	}
	return records, nil
}

// ListManualEntries reads the staged manual-upload rows for an audit key
func (dao *RecordDAO) ListManualEntries(ctx context.Context, app, frequency, period string) ([]model.FreshRecord, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (m:MANUAL_ENTRY {application: $application, frequency: $frequency, period: $period})
    RETURN m
    ORDER BY m.accountId
    `
	result, err := session.Run(query, map[string]interface{}{
		"application": app,
		"frequency":   frequency,
		"period":      period,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute list manual entries query: %w", err)
	}

	var records []model.FreshRecord
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		record, err := mapNodeToFresh(node)
		if err != nil {
			return nil, fmt.Errorf("failed to map manual entry node to struct: %w", err)
		}
		records = append(records, *record)
	}
	return records, nil
}

func recordKeyString(key model.AuditKey, src model.Source, accountID string) string {
	return fmt.Sprintf("%s|%s|%s", key.String(), src, accountID)
}

// Helper function to map Neo4j Node to AccessRecord struct
func mapNodeToRecord(node neo4j.Node) (*model.AccessRecord, error) {
	props := node.Props
	record := &model.AccessRecord{}

	if application, ok := props["application"].(string); ok {
		record.Application = application
	} else {
		return nil, fmt.Errorf("failed to assert type for record application: %v", props["application"])
	}
	if frequency, ok := props["frequency"].(string); ok {
		record.Frequency = frequency
	}
	if period, ok := props["period"].(string); ok {
		record.Period = period
	}
	if source, ok := props["source"].(string); ok {
		record.Source = model.Source(source)
	} else {
		return nil, fmt.Errorf("failed to assert type for record source: %v", props["source"])
	}
	if kind, ok := props["kind"].(string); ok {
		record.Kind = model.RecordKind(kind)
	}
	if accountID, ok := props["accountId"].(string); ok {
		record.AccountID = accountID
	} else {
		return nil, fmt.Errorf("failed to assert type for record accountId: %v", props["accountId"])
	}
	if role, ok := props["role"].(string); ok {
		record.Role = role
	}
	if manager, ok := props["manager"].(string); ok {
		record.Manager = manager
	}
	if delegate, ok := props["delegate"].(string); ok {
		record.Delegate = delegate
	}
	if signOff, ok := props["signOffStatus"].(string); ok {
		record.SignOff = model.SignOffStatus(signOff)
	}
	if ticketKey, ok := props["ticketKey"].(string); ok {
		record.TicketKey = ticketKey
	}
	if ticketStatus, ok := props["ticketStatus"].(string); ok {
		record.TicketStatus = ticketStatus
	}
	if comment, ok := props["comment"].(string); ok {
		record.Comment = comment
	}
	if decidedBy, ok := props["decidedBy"].(string); ok {
		record.DecidedBy = decidedBy
	}
	if decidedAt, ok := props["decidedAt"]; ok {
		if t, err := helper_util.ParseNullableTime(decidedAt); err == nil {
			record.DecidedAt = t
		}
	}

	return record, nil
}

// Helper function to map Neo4j Node to FreshRecord struct
func mapNodeToFresh(node neo4j.Node) (*model.FreshRecord, error) {
	props := node.Props
	record := &model.FreshRecord{}

	if application, ok := props["application"].(string); ok {
		record.Application = application
	} else {
		return nil, fmt.Errorf("failed to assert type for fresh application: %v", props["application"])
	}
	if frequency, ok := props["frequency"].(string); ok {
		record.Frequency = frequency
	}
	if period, ok := props["period"].(string); ok {
		record.Period = period
	}
	if source, ok := props["source"].(string); ok {
		record.Source = model.Source(source)
	}
	if kind, ok := props["kind"].(string); ok {
		record.Kind = model.RecordKind(kind)
	}
	if accountID, ok := props["accountId"].(string); ok {
		record.AccountID = accountID
	} else {
		return nil, fmt.Errorf("failed to assert type for fresh accountId: %v", props["accountId"])
	}
	if role, ok := props["role"].(string); ok {
		record.Role = role
	}
	if manager, ok := props["manager"].(string); ok {
		record.Manager = manager
	}
	if delegate, ok := props["delegate"].(string); ok {
		record.Delegate = delegate
	}
	if fetchedAt, ok := props["fetchedAt"].(string); ok {
		if t, err := helper_util.ParseTime(fetchedAt); err == nil {
			record.FetchedAt = t
		}
	}

	return record, nil
}

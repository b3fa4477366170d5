// Package repository holds the sqlite-backed persistence for the audit
// trail. The approval request store itself is in-memory; only masked audit
// records are durable.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adminchat/approvalgate/internal/domain/entity"
)

// timestampLayout is fixed-width so the string ordering sqlite compares in
// the retention purge matches chronological ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// AuditRepository appends and reads masked audit records
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates an audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert appends one audit record
func (r *AuditRepository) Insert(ctx context.Context, record *entity.AuditRecord) error {
	query := `
		INSERT INTO audit_log (
			entity_id, short_code, action, actor_id, timestamp_utc, details
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		record.EntityID,
		record.ShortCode,
		record.Action,
		record.ActorID,
		record.TimestampUTC.UTC().Format(timestampLayout),
		record.Details,
	)
	if err != nil {
		r.logger.Error("Failed to insert audit record", zap.Error(err))
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// ListByEntity returns all audit records for a request id in forward order
func (r *AuditRepository) ListByEntity(ctx context.Context, entityID string) ([]*entity.AuditRecord, error) {
	query := `
		SELECT id, entity_id, short_code, action, actor_id, timestamp_utc, details
		FROM audit_log
		WHERE entity_id = ?
		ORDER BY id ASC
	`
	return r.list(ctx, query, entityID)
}

// ListByShortCode returns all audit records correlated to a short code
func (r *AuditRepository) ListByShortCode(ctx context.Context, shortCode string) ([]*entity.AuditRecord, error) {
	query := `
		SELECT id, entity_id, short_code, action, actor_id, timestamp_utc, details
		FROM audit_log
		WHERE short_code = ?
		ORDER BY id ASC
	`
	return r.list(ctx, query, shortCode)
}

func (r *AuditRepository) list(ctx context.Context, query string, arg interface{}) ([]*entity.AuditRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to query audit records", zap.Error(err))
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []*entity.AuditRecord
	for rows.Next() {
		var record entity.AuditRecord
		var ts string
		err := rows.Scan(
			&record.ID,
			&record.EntityID,
			&record.ShortCode,
			&record.Action,
			&record.ActorID,
			&ts,
			&record.Details,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		if record.TimestampUTC, err = time.Parse(timestampLayout, ts); err != nil {
			return nil, fmt.Errorf("failed to parse audit timestamp: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// DeleteOlderThan purges audit records older than the given age. Returns
// the number of rows removed.
func (r *AuditRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).UTC().Format(timestampLayout)

	result, err := r.db.ExecContext(ctx,
		"DELETE FROM audit_log WHERE timestamp_utc < ?", cutoff)
	if err != nil {
		r.logger.Error("Failed to purge audit records", zap.Error(err))
		return 0, fmt.Errorf("failed to purge audit records: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return removed, nil
}

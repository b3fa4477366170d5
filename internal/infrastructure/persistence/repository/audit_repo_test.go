package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adminchat/approvalgate/internal/domain/entity"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// A second pooled connection would see its own empty in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE audit_log (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_id     TEXT NOT NULL,
			short_code    TEXT NOT NULL DEFAULT '',
			action        TEXT NOT NULL,
			actor_id      TEXT NOT NULL DEFAULT '',
			timestamp_utc TEXT NOT NULL,
			details       TEXT NOT NULL DEFAULT ''
		);
	`)
	require.NoError(t, err)

	return db
}

func record(entityID, action string, ts time.Time) *entity.AuditRecord {
	return &entity.AuditRecord{
		EntityID:     entityID,
		ShortCode:    "ABC123",
		Action:       action,
		ActorID:      "alice",
		TimestampUTC: ts,
		Details:      `{"note":"hello"}`,
	}
}

func TestInsertAndListByEntity(t *testing.T) {
	repo := NewAuditRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Insert(ctx, record("r1", entity.AuditActionRequestCreated, now)))
	require.NoError(t, repo.Insert(ctx, record("r1", entity.AuditActionApproved, now.Add(time.Second))))
	require.NoError(t, repo.Insert(ctx, record("r2", entity.AuditActionRequestCreated, now)))

	records, err := repo.ListByEntity(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, entity.AuditActionRequestCreated, records[0].Action)
	assert.Equal(t, entity.AuditActionApproved, records[1].Action)
	assert.Equal(t, `{"note":"hello"}`, records[0].Details)
	assert.WithinDuration(t, now, records[0].TimestampUTC, time.Millisecond)

	missing, err := repo.ListByEntity(ctx, "r9")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestListByShortCode(t *testing.T) {
	repo := NewAuditRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, record("r1", entity.AuditActionRequestCreated, time.Now().UTC())))

	records, err := repo.ListByShortCode(ctx, "ABC123")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "r1", records[0].EntityID)
}

func TestDeleteOlderThan(t *testing.T) {
	repo := NewAuditRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, repo.Insert(ctx, record("r1", entity.AuditActionRequestCreated, old)))
	require.NoError(t, repo.Insert(ctx, record("r2", entity.AuditActionRequestCreated, time.Now().UTC())))

	removed, err := repo.DeleteOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	remaining, err := repo.ListByEntity(ctx, "r2")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	gone, err := repo.ListByEntity(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, gone)
}

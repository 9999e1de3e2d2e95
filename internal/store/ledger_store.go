package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/engineer-metrics/internal/model"
)

// GetLedgerEntry retrieves the ledger row of an entity type. It returns nil
// without error when the entity type has never been synced.
func (s *SQLiteStore) GetLedgerEntry(ctx context.Context, entityType string) (*model.LedgerEntry, error) {
	var e model.LedgerEntry
	err := s.db.GetContext(ctx, &e,
		"SELECT * FROM sync_ledger WHERE entity_type = ?", entityType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting ledger entry %s: %w", entityType, err)
	}
	return &e, nil
}

// ListLedgerEntries retrieves every ledger row ordered by entity type.
func (s *SQLiteStore) ListLedgerEntries(ctx context.Context) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM sync_ledger ORDER BY entity_type")
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}
	return entries, nil
}

// MarkSyncStarted flags an entity type as in progress, keeping its last
// successful sync time and record count.
func (s *SQLiteStore) MarkSyncStarted(ctx context.Context, entityType string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_ledger (entity_type, status, error_message, updated_at)
		VALUES (?, ?, '', ?)
		ON CONFLICT(entity_type) DO UPDATE SET
			status = excluded.status,
			error_message = '',
			updated_at = excluded.updated_at`,
		entityType, string(model.LedgerInProgress), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("marking %s sync started: %w", entityType, err)
	}
	return nil
}

// RecordSyncSuccess records a successful sync. last_sync_at never moves
// backwards: an older syncedAt keeps the stored value.
func (s *SQLiteStore) RecordSyncSuccess(
	ctx context.Context,
	entityType string,
	syncedAt time.Time,
	count int,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current sql.NullTime
	err = tx.GetContext(ctx, &current,
		"SELECT last_sync_at FROM sync_ledger WHERE entity_type = ?", entityType)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reading %s last sync: %w", entityType, err)
	}

	lastSync := syncedAt.UTC()
	if current.Valid && current.Time.After(lastSync) {
		lastSync = current.Time.UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sync_ledger (entity_type, last_sync_at, record_count, status, error_message, updated_at)
		VALUES (?, ?, ?, ?, '', ?)
		ON CONFLICT(entity_type) DO UPDATE SET
			last_sync_at = excluded.last_sync_at,
			record_count = excluded.record_count,
			status = excluded.status,
			error_message = '',
			updated_at = excluded.updated_at`,
		entityType, lastSync, count, string(model.LedgerSuccess), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording %s sync success: %w", entityType, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s sync success: %w", entityType, err)
	}
	return nil
}

// RecordSyncFailure records a failed sync, keeping the last successful sync
// time and record count.
func (s *SQLiteStore) RecordSyncFailure(ctx context.Context, entityType string, message string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_ledger (entity_type, status, error_message, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(entity_type) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at`,
		entityType, string(model.LedgerFailed), message, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording %s sync failure: %w", entityType, err)
	}
	return nil
}

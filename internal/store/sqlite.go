package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// memoryPath is the SQLite path of a private in-memory database.
const memoryPath = ":memory:"

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath with
// foreign keys enforced, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	memory := dbPath == memoryPath
	if !memory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dsn(dbPath, memory))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Each connection to :memory: is a separate database.
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite db: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// dsn appends connection pragmas so every pooled connection gets them.
func dsn(dbPath string, memory bool) string {
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
	}
	if !memory {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return dbPath + "?" + strings.Join(pragmas, "&")
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SetClock replaces the clock used for synced_at and ledger timestamps.
func (s *SQLiteStore) SetClock(now func() time.Time) {
	s.now = now
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// placeholderTables are the tables whose rows may be repair placeholders.
// Replacing a placeholder with fetched data counts as a creation.
var placeholderTables = map[string]bool{
	"boards":  true,
	"tickets": true,
}

// upsertRow runs an INSERT ... ON CONFLICT DO UPDATE statement in its own
// transaction and reports whether the row was newly created.
func (s *SQLiteStore) upsertRow(
	ctx context.Context,
	table string,
	keyColumn string,
	key int64,
	query string,
	args ...interface{},
) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existsQuery := "SELECT COUNT(*) FROM " + table + " WHERE " + keyColumn + " = ?"
	if placeholderTables[table] {
		existsQuery += " AND placeholder = 0"
	}

	var existing int
	err = tx.GetContext(ctx, &existing, existsQuery, key)
	if err != nil {
		return false, fmt.Errorf("checking %s %d: %w", table, key, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("upserting %s %d: %w", table, key, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing %s %d: %w", table, key, err)
	}
	return existing == 0, nil
}

// getOne fetches a single row into dest, mapping sql.ErrNoRows to ErrNotFound.
func (s *SQLiteStore) getOne(
	ctx context.Context,
	dest interface{},
	what string,
	query string,
	args ...interface{},
) error {
	err := s.db.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("getting %s: %w", what, err)
	}
	return nil
}

// selectIn runs a query containing a single "IN (?)" placeholder expanded
// over values.
func selectIn[T any](
	ctx context.Context,
	s *SQLiteStore,
	dest *[]T,
	query string,
	values interface{},
) error {
	q, args, err := sqlx.In(query, values)
	if err != nil {
		return fmt.Errorf("expanding query: %w", err)
	}
	return s.db.SelectContext(ctx, dest, s.db.Rebind(q), args...)
}

// TableCounts returns the number of rows in each synced table.
func (s *SQLiteStore) TableCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(syncedTables))
	for _, table := range syncedTables {
		var n int
		if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// utcPtr normalizes an optional timestamp to UTC.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

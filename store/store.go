// Package store persists cards and their review history in SQLite.
//
// A Store is safe for concurrent use. Card scheduling updates and their review
// logs are written in a single transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is the latest migration applied by Open.
const SchemaVersion = 3

var (
	// ErrNotFound is returned when a card does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when adding a card whose ID is already stored.
	ErrDuplicate = errors.New("store: duplicate card")
)

// timeLayout is fixed-width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed card and review-log store.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the database at path, enables WAL mode and foreign
// keys, and applies any pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=10000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// SQLite allows one writer at a time.
	conn.SetMaxOpenConns(1)

	var mode string
	if err := conn.QueryRowContext(ctx, "PRAGMA journal_mode=WAL").Scan(&mode); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: enable WAL mode: %w", err)
	}
	if mode != "wal" && mode != "memory" {
		conn.Close()
		return nil, fmt.Errorf("store: enable WAL mode: got journal mode %q", mode)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin migration: %w", err)
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("store: read schema version: %w", err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("store: database schema v%d is newer than supported v%d", version, SchemaVersion)
	}

	for version < SchemaVersion {
		version++
		var err error
		switch version {
		case 1:
			err = applySchemaV1(ctx, tx)
		case 2:
			err = applySchemaV2(ctx, tx)
		case 3:
			err = applySchemaV3(ctx, tx)
		default:
			err = fmt.Errorf("unknown schema version: %d", version)
		}
		if err != nil {
			return fmt.Errorf("store: apply schema v%d: %w", version, err)
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("store: write schema version: %w", err)
	}
	return tx.Commit()
}

// applySchemaV1 creates the card tables.
func applySchemaV1(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			front TEXT NOT NULL,
			back TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			ease REAL NOT NULL,
			interval_days INTEGER NOT NULL DEFAULT 0,
			reps INTEGER NOT NULL DEFAULT 0,
			lapses INTEGER NOT NULL DEFAULT 0,
			due_at TEXT NOT NULL,
			last_reviewed_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_due_at ON cards(due_at)`,
		`CREATE TABLE IF NOT EXISTS card_tags (
			card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (card_id, tag)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_card_tags_tag ON card_tags(tag)`,
	}
	return execAll(ctx, tx, stmts)
}

// applySchemaV2 adds the append-only review log.
func applySchemaV2(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS review_logs (
			id TEXT PRIMARY KEY,
			card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
			grade INTEGER NOT NULL CHECK (grade BETWEEN 1 AND 4),
			reviewed_at TEXT NOT NULL,
			due_before TEXT NOT NULL,
			due_after TEXT NOT NULL,
			interval_before INTEGER NOT NULL,
			interval_after INTEGER NOT NULL,
			ease_before REAL NOT NULL,
			ease_after REAL NOT NULL,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_logs_card ON review_logs(card_id, reviewed_at)`,
		`CREATE TRIGGER IF NOT EXISTS review_logs_no_update
		BEFORE UPDATE ON review_logs
		BEGIN
			SELECT RAISE(ABORT, 'review logs are append-only');
		END`,
	}
	return execAll(ctx, tx, stmts)
}

// applySchemaV3 forbids deleting review history. Deleting a card that has
// been reviewed is rejected too, since its cascade would remove logs.
func applySchemaV3(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TRIGGER IF NOT EXISTS review_logs_no_delete
		BEFORE DELETE ON review_logs
		BEGIN
			SELECT RAISE(ABORT, 'review logs are append-only');
		END`,
	}
	return execAll(ctx, tx, stmts)
}

func execAll(ctx context.Context, tx *sql.Tx, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: parse time %q: %w", s, err)
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// Package sqlite is a single-file store for local and development use,
// implemented with sqlx over the mattn/go-sqlite3 driver.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements every repository contract on one SQLite database.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database at path and migrates it.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", mapError(err))
	}

	// SQLite has a single writer; one connection also keeps ":memory:" a
	// single database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// withinTx runs fn in a transaction, committing when it succeeds.
func (s *Store) withinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", mapError(err))
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", mapError(err))
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", mapError(err))
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS topics (
		id             TEXT PRIMARY KEY,
		subject_id     TEXT NOT NULL,
		title          TEXT NOT NULL,
		exam_weight    REAL NOT NULL,
		required_depth TEXT NOT NULL,
		priority_hint  TEXT NOT NULL DEFAULT 'medium',
		position       INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_topics_subject ON topics(subject_id, position)`,
	`CREATE TABLE IF NOT EXISTS topic_dependencies (
		subject_id TEXT NOT NULL,
		topic_id   TEXT NOT NULL,
		depends_on TEXT NOT NULL,
		PRIMARY KEY (topic_id, depends_on)
	)`,
	`CREATE TABLE IF NOT EXISTS flashcards (
		id       TEXT PRIMARY KEY,
		topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		front    TEXT NOT NULL,
		back     TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id                TEXT PRIMARY KEY,
		chat_id           INTEGER NOT NULL DEFAULT 0,
		reminders_enabled INTEGER NOT NULL DEFAULT 1,
		last_reminded_at  DATETIME,
		created_at        DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS topic_progress (
		user_id            TEXT NOT NULL,
		topic_id           TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		status             TEXT NOT NULL,
		completed_at       DATETIME,
		time_spent_minutes INTEGER NOT NULL DEFAULT 0,
		updated_at         DATETIME NOT NULL,
		version            INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (user_id, topic_id)
	)`,
	`CREATE TABLE IF NOT EXISTS review_items (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		flashcard_id     TEXT NOT NULL REFERENCES flashcards(id) ON DELETE CASCADE,
		topic_id         TEXT,
		easiness_factor  REAL NOT NULL,
		repetition_count INTEGER NOT NULL DEFAULT 0,
		interval_days    REAL NOT NULL DEFAULT 0,
		due_date         DATETIME NOT NULL,
		last_reviewed_at DATETIME,
		last_grade       TEXT,
		version          INTEGER NOT NULL DEFAULT 0,
		created_at       DATETIME NOT NULL,
		UNIQUE (user_id, flashcard_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_review_items_user ON review_items(user_id, due_date)`,
	`CREATE TABLE IF NOT EXISTS review_logs (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id         TEXT NOT NULL REFERENCES review_items(id) ON DELETE CASCADE,
		user_id         TEXT NOT NULL,
		grade           TEXT NOT NULL,
		reviewed_at     DATETIME NOT NULL,
		interval_days   REAL NOT NULL,
		easiness_factor REAL NOT NULL
	)`,
}

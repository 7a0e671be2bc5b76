package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS topics (
		id             TEXT PRIMARY KEY,
		subject_id     TEXT NOT NULL,
		title          TEXT NOT NULL,
		exam_weight    DOUBLE PRECISION NOT NULL CHECK (exam_weight BETWEEN 0 AND 100),
		required_depth TEXT NOT NULL,
		priority_hint  TEXT NOT NULL DEFAULT 'medium',
		position       INT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS topics_subject_idx ON topics (subject_id, position)`,
	`CREATE TABLE IF NOT EXISTS topic_dependencies (
		subject_id TEXT NOT NULL,
		topic_id   TEXT NOT NULL,
		depends_on TEXT NOT NULL,
		PRIMARY KEY (topic_id, depends_on)
	)`,
	`CREATE INDEX IF NOT EXISTS topic_dependencies_subject_idx ON topic_dependencies (subject_id)`,
	`CREATE TABLE IF NOT EXISTS flashcards (
		id       TEXT PRIMARY KEY,
		topic_id TEXT NOT NULL REFERENCES topics (id) ON DELETE CASCADE,
		front    TEXT NOT NULL,
		back     TEXT NOT NULL,
		position INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id                TEXT PRIMARY KEY,
		chat_id           BIGINT NOT NULL DEFAULT 0,
		reminders_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		last_reminded_at  TIMESTAMPTZ,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS topic_progress (
		user_id            TEXT NOT NULL,
		topic_id           TEXT NOT NULL REFERENCES topics (id) ON DELETE CASCADE,
		status             TEXT NOT NULL,
		completed_at       TIMESTAMPTZ,
		time_spent_minutes INT NOT NULL DEFAULT 0,
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		version            INT NOT NULL DEFAULT 1,
		PRIMARY KEY (user_id, topic_id)
	)`,
	`ALTER TABLE topic_progress ADD COLUMN IF NOT EXISTS version INT NOT NULL DEFAULT 1`,
	`CREATE TABLE IF NOT EXISTS review_items (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		flashcard_id     TEXT NOT NULL REFERENCES flashcards (id) ON DELETE CASCADE,
		topic_id         TEXT,
		easiness_factor  DOUBLE PRECISION NOT NULL,
		repetition_count INT NOT NULL DEFAULT 0,
		interval_days    DOUBLE PRECISION NOT NULL DEFAULT 0,
		due_date         TIMESTAMPTZ NOT NULL,
		last_reviewed_at TIMESTAMPTZ,
		last_grade       TEXT,
		version          INT NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, flashcard_id)
	)`,
	`CREATE INDEX IF NOT EXISTS review_items_due_idx ON review_items (user_id, due_date)`,
	`CREATE TABLE IF NOT EXISTS review_logs (
		id              BIGSERIAL PRIMARY KEY,
		item_id         TEXT NOT NULL REFERENCES review_items (id) ON DELETE CASCADE,
		user_id         TEXT NOT NULL,
		grade           TEXT NOT NULL,
		reviewed_at     TIMESTAMPTZ NOT NULL,
		interval_days   DOUBLE PRECISION NOT NULL,
		easiness_factor DOUBLE PRECISION NOT NULL
	)`,
}

// Migrate creates missing tables and indexes.
func Migrate(ctx context.Context, db DBTX) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", MapError(err))
		}
	}
	return nil
}

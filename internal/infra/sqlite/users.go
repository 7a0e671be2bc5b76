package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

type userRow struct {
	ID               string       `db:"id"`
	ChatID           int64        `db:"chat_id"`
	RemindersEnabled bool         `db:"reminders_enabled"`
	LastRemindedAt   sql.NullTime `db:"last_reminded_at"`
	CreatedAt        time.Time    `db:"created_at"`
}

func (r userRow) entity() entities.User {
	u := entities.User{
		ID:               r.ID,
		ChatID:           r.ChatID,
		RemindersEnabled: r.RemindersEnabled,
		CreatedAt:        r.CreatedAt,
	}
	if r.LastRemindedAt.Valid {
		t := r.LastRemindedAt.Time
		u.LastRemindedAt = &t
	}
	return u
}

func (s *Store) SaveUser(ctx context.Context, user *entities.User) error {
	row := userRow{
		ID:               user.ID,
		ChatID:           user.ChatID,
		RemindersEnabled: user.RemindersEnabled,
		CreatedAt:        user.CreatedAt.UTC(),
	}
	if user.LastRemindedAt != nil {
		row.LastRemindedAt = sql.NullTime{Time: user.LastRemindedAt.UTC(), Valid: true}
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, chat_id, reminders_enabled, last_reminded_at, created_at)
		VALUES (:id, :chat_id, :reminders_enabled, :last_reminded_at, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			chat_id = excluded.chat_id,
			reminders_enabled = excluded.reminders_enabled`, row)
	if err != nil {
		return fmt.Errorf("save user: %w", mapError(err))
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*entities.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, chat_id, reminders_enabled, last_reminded_at, created_at
		FROM users WHERE id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, mapError(err))
	}
	u := row.entity()
	return &u, nil
}

func (s *Store) ListReminderTargets(ctx context.Context) ([]entities.User, error) {
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, chat_id, reminders_enabled, last_reminded_at, created_at
		FROM users WHERE reminders_enabled = 1 AND chat_id <> 0
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list reminder targets: %w", mapError(err))
	}

	users := make([]entities.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.entity())
	}
	return users, nil
}

func (s *Store) SetRemindersEnabled(ctx context.Context, userID string, enabled bool) error {
	return s.updateUser(ctx, "set reminders enabled",
		`UPDATE users SET reminders_enabled = ? WHERE id = ?`, enabled, userID)
}

func (s *Store) MarkReminded(ctx context.Context, userID string, at time.Time) error {
	return s.updateUser(ctx, "mark reminded",
		`UPDATE users SET last_reminded_at = ? WHERE id = ?`, at.UTC(), userID)
}

func (s *Store) updateUser(ctx context.Context, op, query string, value any, userID string) error {
	res, err := s.db.ExecContext(ctx, query, value, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if n == 0 {
		return fmt.Errorf("%s: user %s: %w", op, userID, entities.ErrNotFound)
	}
	return nil
}

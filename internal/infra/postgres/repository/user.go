package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/infra/postgres"
)

// UserRepository provides access to user data in the database.
type UserRepository struct {
	db postgres.DBTX
}

// NewUserRepository creates a new UserRepository with the provided database pool.
func NewUserRepository(db postgres.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// SaveUser inserts a new user or updates the chat of an existing one.
func (r *UserRepository) SaveUser(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (id, chat_id, reminders_enabled, last_reminded_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			reminders_enabled = EXCLUDED.reminders_enabled
	`

	_, err := r.db.Exec(ctx, query,
		user.ID, user.ChatID, user.RemindersEnabled, user.LastRemindedAt, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("save user: %w", postgres.MapError(err))
	}

	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, userID string) (*entities.User, error) {
	query := `
		SELECT id, chat_id, reminders_enabled, last_reminded_at, created_at
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, postgres.MapError(err))
	}

	return user, nil
}

// ListReminderTargets returns users with reminders enabled and a known chat.
func (r *UserRepository) ListReminderTargets(ctx context.Context) ([]entities.User, error) {
	query := `
		SELECT id, chat_id, reminders_enabled, last_reminded_at, created_at
		FROM users
		WHERE reminders_enabled AND chat_id <> 0
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reminder targets: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var users []entities.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", postgres.MapError(err))
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", postgres.MapError(err))
	}

	return users, nil
}

// SetRemindersEnabled turns reminders of a user on or off.
func (r *UserRepository) SetRemindersEnabled(ctx context.Context, userID string, enabled bool) error {
	query := `UPDATE users SET reminders_enabled = $2 WHERE id = $1`

	return r.updateOne(ctx, "set reminders enabled", query, userID, enabled)
}

// MarkReminded records when the user was last reminded.
func (r *UserRepository) MarkReminded(ctx context.Context, userID string, at time.Time) error {
	query := `UPDATE users SET last_reminded_at = $2 WHERE id = $1`

	return r.updateOne(ctx, "mark reminded", query, userID, at)
}

func (r *UserRepository) updateOne(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, postgres.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: user %v: %w", op, args[0], entities.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entities.User, error) {
	var (
		user     entities.User
		reminded pgtype.Timestamptz
	)

	if err := row.Scan(&user.ID, &user.ChatID, &user.RemindersEnabled, &reminded, &user.CreatedAt); err != nil {
		return nil, err
	}

	if reminded.Valid {
		t := reminded.Time
		user.LastRemindedAt = &t
	}
	return &user, nil
}

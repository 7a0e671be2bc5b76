package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

type progressRow struct {
	UserID           string       `db:"user_id"`
	TopicID          string       `db:"topic_id"`
	Status           string       `db:"status"`
	CompletedAt      sql.NullTime `db:"completed_at"`
	TimeSpentMinutes int          `db:"time_spent_minutes"`
	UpdatedAt        time.Time    `db:"updated_at"`
	Version          int          `db:"version"`
}

func (r progressRow) entity() entities.ProgressRecord {
	p := entities.ProgressRecord{
		UserID:           r.UserID,
		TopicID:          r.TopicID,
		Status:           entities.ProgressStatus(r.Status),
		TimeSpentMinutes: r.TimeSpentMinutes,
		UpdatedAt:        r.UpdatedAt,
		Version:          r.Version,
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		p.CompletedAt = &t
	}
	return p
}

func (s *Store) LoadProgress(ctx context.Context, userID, subjectID string) ([]entities.ProgressRecord, error) {
	var rows []progressRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT p.user_id, p.topic_id, p.status, p.completed_at, p.time_spent_minutes, p.updated_at, p.version
		FROM topic_progress p JOIN topics t ON t.id = p.topic_id
		WHERE p.user_id = ? AND t.subject_id = ?
		ORDER BY p.topic_id`, userID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", mapError(err))
	}

	records := make([]entities.ProgressRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.entity())
	}
	return records, nil
}

func (s *Store) GetProgress(ctx context.Context, userID, topicID string) (*entities.ProgressRecord, error) {
	var row progressRow
	err := s.db.GetContext(ctx, &row, `
		SELECT user_id, topic_id, status, completed_at, time_spent_minutes, updated_at, version
		FROM topic_progress WHERE user_id = ? AND topic_id = ?`, userID, topicID)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", mapError(err))
	}
	p := row.entity()
	return &p, nil
}

// UpsertProgress inserts a record with Version 0 or updates one whose version
// matches the stored one. record.Version is incremented on success.
func (s *Store) UpsertProgress(ctx context.Context, p *entities.ProgressRecord) error {
	row := progressRow{
		UserID:           p.UserID,
		TopicID:          p.TopicID,
		Status:           string(p.Status),
		TimeSpentMinutes: p.TimeSpentMinutes,
		UpdatedAt:        p.UpdatedAt.UTC(),
		Version:          p.Version,
	}
	if p.CompletedAt != nil {
		row.CompletedAt = sql.NullTime{Time: p.CompletedAt.UTC(), Valid: true}
	}

	query := `
		UPDATE topic_progress SET
			status = :status,
			completed_at = :completed_at,
			time_spent_minutes = :time_spent_minutes,
			updated_at = :updated_at,
			version = version + 1
		WHERE user_id = :user_id AND topic_id = :topic_id AND version = :version`
	if p.Version == 0 {
		query = `
		INSERT OR IGNORE INTO topic_progress
			(user_id, topic_id, status, completed_at, time_spent_minutes, updated_at, version)
		VALUES (:user_id, :topic_id, :status, :completed_at, :time_spent_minutes, :updated_at, 1)`
	}

	res, err := s.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert progress: %w", mapError(err))
	}
	if n == 0 {
		return fmt.Errorf("progress %s/%s at version %d: %w", p.UserID, p.TopicID, p.Version, entities.ErrVersionConflict)
	}

	p.Version++
	return nil
}

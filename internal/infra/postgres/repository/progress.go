package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/infra/postgres"
)

// ProgressRepository provides access to topic progress in the database.
type ProgressRepository struct {
	db postgres.DBTX
}

// NewProgressRepository creates a new ProgressRepository with the provided database pool.
func NewProgressRepository(db postgres.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

const progressColumns = `p.user_id, p.topic_id, p.status, p.completed_at, p.time_spent_minutes, p.updated_at, p.version`

// LoadProgress returns the progress of a user on the topics of a subject.
func (r *ProgressRepository) LoadProgress(ctx context.Context, userID, subjectID string) ([]entities.ProgressRecord, error) {
	query := `SELECT ` + progressColumns + `
		FROM topic_progress p
		JOIN topics t ON t.id = p.topic_id
		WHERE p.user_id = $1 AND t.subject_id = $2
		ORDER BY p.topic_id
	`

	rows, err := r.db.Query(ctx, query, userID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var records []entities.ProgressRecord
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", postgres.MapError(err))
		}
		records = append(records, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", postgres.MapError(err))
	}

	return records, nil
}

// GetProgress retrieves a single progress record.
func (r *ProgressRepository) GetProgress(ctx context.Context, userID, topicID string) (*entities.ProgressRecord, error) {
	query := `SELECT ` + progressColumns + `
		FROM topic_progress p
		WHERE p.user_id = $1 AND p.topic_id = $2
	`

	p, err := scanProgress(r.db.QueryRow(ctx, query, userID, topicID))
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", postgres.MapError(err))
	}
	return p, nil
}

// UpsertProgress inserts a record with Version 0 or updates one whose version
// matches the stored one. p.Version is incremented on success.
func (r *ProgressRepository) UpsertProgress(ctx context.Context, p *entities.ProgressRecord) error {
	query := `
		UPDATE topic_progress SET
			status = $3,
			completed_at = $4,
			time_spent_minutes = $5,
			updated_at = $6,
			version = version + 1
		WHERE user_id = $1 AND topic_id = $2 AND version = $7
	`
	if p.Version == 0 {
		query = `
			INSERT INTO topic_progress (user_id, topic_id, status, completed_at, time_spent_minutes, updated_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7 + 1)
			ON CONFLICT (user_id, topic_id) DO NOTHING
		`
	}

	tag, err := r.db.Exec(ctx, query,
		p.UserID, p.TopicID, string(p.Status), p.CompletedAt, p.TimeSpentMinutes, p.UpdatedAt, p.Version)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", postgres.MapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("progress %s/%s at version %d: %w", p.UserID, p.TopicID, p.Version, entities.ErrVersionConflict)
	}

	p.Version++
	return nil
}

func scanProgress(row rowScanner) (*entities.ProgressRecord, error) {
	var (
		p         entities.ProgressRecord
		status    string
		completed pgtype.Timestamptz
	)

	if err := row.Scan(&p.UserID, &p.TopicID, &status, &completed, &p.TimeSpentMinutes, &p.UpdatedAt, &p.Version); err != nil {
		return nil, err
	}

	p.Status = entities.ProgressStatus(status)
	if completed.Valid {
		t := completed.Time
		p.CompletedAt = &t
	}
	return &p, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/infra/postgres"
)

// ReviewItemRepository provides access to review state and history.
type ReviewItemRepository struct {
	db         postgres.DBTX
	transactor *postgres.Transactor
}

func NewReviewItemRepository(db postgres.DBTX, transactor *postgres.Transactor) *ReviewItemRepository {
	return &ReviewItemRepository{db: db, transactor: transactor}
}

const reviewItemColumns = `id, user_id, flashcard_id, topic_id, easiness_factor, repetition_count,
	interval_days, due_date, last_reviewed_at, last_grade, version, created_at`

// LoadReviewItem retrieves an item of the user.
func (r *ReviewItemRepository) LoadReviewItem(ctx context.Context, userID, itemID string) (*entities.ReviewItem, error) {
	query := `SELECT ` + reviewItemColumns + ` FROM review_items WHERE id = $1 AND user_id = $2`

	item, err := scanReviewItem(r.db.QueryRow(ctx, query, itemID, userID))
	if err != nil {
		return nil, fmt.Errorf("load review item %s: %w", itemID, postgres.MapError(err))
	}
	return item, nil
}

// SaveReviewItem updates the item if its version is unchanged and appends the
// review log in the same transaction. item.Version is incremented on success.
func (r *ReviewItemRepository) SaveReviewItem(ctx context.Context, item *entities.ReviewItem, log *entities.ReviewLog) error {
	update := `
		UPDATE review_items SET
			easiness_factor = $3,
			repetition_count = $4,
			interval_days = $5,
			due_date = $6,
			last_reviewed_at = $7,
			last_grade = $8,
			version = version + 1
		WHERE id = $1 AND version = $2 AND user_id = $9
	`
	insertLog := `
		INSERT INTO review_logs (item_id, user_id, grade, reviewed_at, interval_days, easiness_factor)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	err := r.transactor.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, update,
			item.ID, item.Version,
			item.EasinessFactor, item.RepetitionCount, item.IntervalDays, item.DueDate,
			item.LastReviewedAt, gradeParam(item.LastGrade), item.UserID,
		)
		if err != nil {
			return postgres.MapError(err)
		}
		if tag.RowsAffected() == 0 {
			return r.missOrConflict(ctx, tx, item)
		}

		if log != nil {
			if _, err := tx.Exec(ctx, insertLog,
				log.ItemID, log.UserID, string(log.Grade), log.ReviewedAt, log.IntervalDays, log.EasinessFactor,
			); err != nil {
				return postgres.MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save review item %s: %w", item.ID, err)
	}

	item.Version++
	return nil
}

// missOrConflict tells a missing item from a stale version.
func (r *ReviewItemRepository) missOrConflict(ctx context.Context, tx pgx.Tx, item *entities.ReviewItem) error {
	var version int
	err := tx.QueryRow(ctx, `SELECT version FROM review_items WHERE id = $1 AND user_id = $2`,
		item.ID, item.UserID).Scan(&version)
	if err != nil {
		return postgres.MapError(err)
	}
	return fmt.Errorf("stored version %d, have %d: %w", version, item.Version, entities.ErrVersionConflict)
}

// CreateReviewItems inserts items, skipping (user, flashcard) pairs that
// already exist, and returns how many rows were inserted.
func (r *ReviewItemRepository) CreateReviewItems(ctx context.Context, items []entities.ReviewItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO review_items (
			id, user_id, flashcard_id, topic_id, easiness_factor, repetition_count,
			interval_days, due_date, version, created_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(query,
			it.ID, it.UserID, it.FlashcardID, it.TopicID, it.EasinessFactor, it.RepetitionCount,
			it.IntervalDays, it.DueDate, it.Version, it.CreatedAt,
		)
	}

	created := 0
	err := r.transactor.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for range items {
			tag, err := results.Exec()
			if err != nil {
				return postgres.MapError(err)
			}
			created += int(tag.RowsAffected())
		}
		return results.Close()
	})
	if err != nil {
		return 0, fmt.Errorf("create review items: %w", err)
	}

	return created, nil
}

// ListReviewItems returns every item of the user.
func (r *ReviewItemRepository) ListReviewItems(ctx context.Context, userID string) ([]entities.ReviewItem, error) {
	query := `SELECT ` + reviewItemColumns + ` FROM review_items WHERE user_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list review items: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var items []entities.ReviewItem
	for rows.Next() {
		item, err := scanReviewItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review item: %w", postgres.MapError(err))
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", postgres.MapError(err))
	}

	return items, nil
}

// ListReviewLogs returns the review history of an item, oldest first.
func (r *ReviewItemRepository) ListReviewLogs(ctx context.Context, userID, itemID string) ([]entities.ReviewLog, error) {
	query := `
		SELECT item_id, user_id, grade, reviewed_at, interval_days, easiness_factor
		FROM review_logs
		WHERE item_id = $1 AND user_id = $2
		ORDER BY reviewed_at, id
	`

	rows, err := r.db.Query(ctx, query, itemID, userID)
	if err != nil {
		return nil, fmt.Errorf("list review logs: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var logs []entities.ReviewLog
	for rows.Next() {
		var (
			l     entities.ReviewLog
			grade string
		)
		if err := rows.Scan(&l.ItemID, &l.UserID, &grade, &l.ReviewedAt, &l.IntervalDays, &l.EasinessFactor); err != nil {
			return nil, fmt.Errorf("scan review log: %w", postgres.MapError(err))
		}
		l.Grade = entities.Grade(grade)
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", postgres.MapError(err))
	}

	return logs, nil
}

func gradeParam(g *entities.Grade) *string {
	if g == nil {
		return nil
	}
	s := string(*g)
	return &s
}

func scanReviewItem(row rowScanner) (*entities.ReviewItem, error) {
	var (
		item     entities.ReviewItem
		topicID  pgtype.Text
		reviewed pgtype.Timestamptz
		grade    pgtype.Text
	)

	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.FlashcardID,
		&topicID,
		&item.EasinessFactor,
		&item.RepetitionCount,
		&item.IntervalDays,
		&item.DueDate,
		&reviewed,
		&grade,
		&item.Version,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.TopicID = topicID.String
	if reviewed.Valid {
		t := reviewed.Time
		item.LastReviewedAt = &t
	}
	if grade.Valid {
		g := entities.Grade(grade.String)
		item.LastGrade = &g
	}
	return &item, nil
}

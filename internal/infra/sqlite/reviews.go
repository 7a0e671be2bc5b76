package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

type reviewItemRow struct {
	ID              string         `db:"id"`
	UserID          string         `db:"user_id"`
	FlashcardID     string         `db:"flashcard_id"`
	TopicID         sql.NullString `db:"topic_id"`
	EasinessFactor  float64        `db:"easiness_factor"`
	RepetitionCount int            `db:"repetition_count"`
	IntervalDays    float64        `db:"interval_days"`
	DueDate         time.Time      `db:"due_date"`
	LastReviewedAt  sql.NullTime   `db:"last_reviewed_at"`
	LastGrade       sql.NullString `db:"last_grade"`
	Version         int            `db:"version"`
	CreatedAt       time.Time      `db:"created_at"`
}

const reviewItemColumns = `id, user_id, flashcard_id, topic_id, easiness_factor, repetition_count,
	interval_days, due_date, last_reviewed_at, last_grade, version, created_at`

func newReviewItemRow(item *entities.ReviewItem) reviewItemRow {
	row := reviewItemRow{
		ID:              item.ID,
		UserID:          item.UserID,
		FlashcardID:     item.FlashcardID,
		TopicID:         sql.NullString{String: item.TopicID, Valid: item.TopicID != ""},
		EasinessFactor:  item.EasinessFactor,
		RepetitionCount: item.RepetitionCount,
		IntervalDays:    item.IntervalDays,
		DueDate:         item.DueDate.UTC(),
		Version:         item.Version,
		CreatedAt:       item.CreatedAt.UTC(),
	}
	if item.LastReviewedAt != nil {
		row.LastReviewedAt = sql.NullTime{Time: item.LastReviewedAt.UTC(), Valid: true}
	}
	if item.LastGrade != nil {
		row.LastGrade = sql.NullString{String: string(*item.LastGrade), Valid: true}
	}
	return row
}

func (r reviewItemRow) entity() entities.ReviewItem {
	item := entities.ReviewItem{
		ID:              r.ID,
		UserID:          r.UserID,
		FlashcardID:     r.FlashcardID,
		TopicID:         r.TopicID.String,
		EasinessFactor:  r.EasinessFactor,
		RepetitionCount: r.RepetitionCount,
		IntervalDays:    r.IntervalDays,
		DueDate:         r.DueDate,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
	}
	if r.LastReviewedAt.Valid {
		t := r.LastReviewedAt.Time
		item.LastReviewedAt = &t
	}
	if r.LastGrade.Valid {
		g := entities.Grade(r.LastGrade.String)
		item.LastGrade = &g
	}
	return item
}

func (s *Store) LoadReviewItem(ctx context.Context, userID, itemID string) (*entities.ReviewItem, error) {
	var row reviewItemRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+reviewItemColumns+` FROM review_items WHERE id = ? AND user_id = ?`, itemID, userID)
	if err != nil {
		return nil, fmt.Errorf("load review item %s: %w", itemID, mapError(err))
	}
	item := row.entity()
	return &item, nil
}

// SaveReviewItem updates the item when its version is unchanged and appends
// the review log in the same transaction.
func (s *Store) SaveReviewItem(ctx context.Context, item *entities.ReviewItem, log *entities.ReviewLog) error {
	row := newReviewItemRow(item)

	err := s.withinTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `
			UPDATE review_items SET
				easiness_factor = :easiness_factor,
				repetition_count = :repetition_count,
				interval_days = :interval_days,
				due_date = :due_date,
				last_reviewed_at = :last_reviewed_at,
				last_grade = :last_grade,
				version = version + 1
			WHERE id = :id AND user_id = :user_id AND version = :version`, row)
		if err != nil {
			return mapError(err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return mapError(err)
		} else if n == 0 {
			var stored int
			err := tx.GetContext(ctx, &stored,
				`SELECT version FROM review_items WHERE id = ? AND user_id = ?`, item.ID, item.UserID)
			if err != nil {
				return mapError(err)
			}
			return fmt.Errorf("stored version %d, have %d: %w", stored, item.Version, entities.ErrVersionConflict)
		}

		if log == nil {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO review_logs (item_id, user_id, grade, reviewed_at, interval_days, easiness_factor)
			VALUES (?, ?, ?, ?, ?, ?)`,
			log.ItemID, log.UserID, string(log.Grade), log.ReviewedAt.UTC(), log.IntervalDays, log.EasinessFactor)
		return mapError(err)
	})
	if err != nil {
		return fmt.Errorf("save review item %s: %w", item.ID, err)
	}

	item.Version++
	return nil
}

func (s *Store) CreateReviewItems(ctx context.Context, items []entities.ReviewItem) (int, error) {
	created := 0
	err := s.withinTx(ctx, func(tx *sqlx.Tx) error {
		for i := range items {
			res, err := tx.NamedExecContext(ctx, `
				INSERT OR IGNORE INTO review_items (`+reviewItemColumns+`)
				VALUES (:id, :user_id, :flashcard_id, :topic_id, :easiness_factor, :repetition_count,
					:interval_days, :due_date, :last_reviewed_at, :last_grade, :version, :created_at)`,
				newReviewItemRow(&items[i]))
			if err != nil {
				return mapError(err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return mapError(err)
			}
			created += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("create review items: %w", err)
	}
	return created, nil
}

func (s *Store) ListReviewItems(ctx context.Context, userID string) ([]entities.ReviewItem, error) {
	var rows []reviewItemRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+reviewItemColumns+` FROM review_items WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list review items: %w", mapError(err))
	}

	items := make([]entities.ReviewItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.entity())
	}
	return items, nil
}

func (s *Store) ListReviewLogs(ctx context.Context, userID, itemID string) ([]entities.ReviewLog, error) {
	var rows []struct {
		ItemID         string    `db:"item_id"`
		UserID         string    `db:"user_id"`
		Grade          string    `db:"grade"`
		ReviewedAt     time.Time `db:"reviewed_at"`
		IntervalDays   float64   `db:"interval_days"`
		EasinessFactor float64   `db:"easiness_factor"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT item_id, user_id, grade, reviewed_at, interval_days, easiness_factor
		FROM review_logs WHERE item_id = ? AND user_id = ?
		ORDER BY reviewed_at, id`, itemID, userID)
	if err != nil {
		return nil, fmt.Errorf("list review logs: %w", mapError(err))
	}

	logs := make([]entities.ReviewLog, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, entities.ReviewLog{
			ItemID:         r.ItemID,
			UserID:         r.UserID,
			Grade:          entities.Grade(r.Grade),
			ReviewedAt:     r.ReviewedAt,
			IntervalDays:   r.IntervalDays,
			EasinessFactor: r.EasinessFactor,
		})
	}
	return logs, nil
}

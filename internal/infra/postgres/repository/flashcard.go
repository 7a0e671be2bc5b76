package repository

import (
	"context"
	"fmt"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/infra/postgres"
)

// FlashcardRepository provides read access to flashcards.
type FlashcardRepository struct {
	db postgres.DBTX
}

func NewFlashcardRepository(db postgres.DBTX) *FlashcardRepository {
	return &FlashcardRepository{db: db}
}

// GetFlashcard retrieves a flashcard by ID.
func (r *FlashcardRepository) GetFlashcard(ctx context.Context, flashcardID string) (*entities.Flashcard, error) {
	query := `SELECT id, topic_id, front, back FROM flashcards WHERE id = $1`

	var c entities.Flashcard
	err := r.db.QueryRow(ctx, query, flashcardID).Scan(&c.ID, &c.TopicID, &c.Front, &c.Back)
	if err != nil {
		return nil, fmt.Errorf("get flashcard %s: %w", flashcardID, postgres.MapError(err))
	}
	return &c, nil
}

// ListFlashcards returns the flashcards of a subject in topic order.
func (r *FlashcardRepository) ListFlashcards(ctx context.Context, subjectID string) ([]entities.Flashcard, error) {
	query := `
		SELECT f.id, f.topic_id, f.front, f.back
		FROM flashcards f
		JOIN topics t ON t.id = f.topic_id
		WHERE t.subject_id = $1
		ORDER BY t.position, f.position, f.id
	`

	rows, err := r.db.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var cards []entities.Flashcard
	for rows.Next() {
		var c entities.Flashcard
		if err := rows.Scan(&c.ID, &c.TopicID, &c.Front, &c.Back); err != nil {
			return nil, fmt.Errorf("scan flashcard: %w", postgres.MapError(err))
		}
		cards = append(cards, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", postgres.MapError(err))
	}

	return cards, nil
}

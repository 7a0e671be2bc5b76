package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/infra/postgres"
)

// SubjectRepository writes imported subjects.
type SubjectRepository struct {
	transactor *postgres.Transactor
}

func NewSubjectRepository(transactor *postgres.Transactor) *SubjectRepository {
	return &SubjectRepository{transactor: transactor}
}

// SaveSubject replaces the topics, edges and flashcards of a subject in one
// transaction. Topics and cards that survive the import keep their ids, so
// progress and review items referring to them are preserved.
func (r *SubjectRepository) SaveSubject(
	ctx context.Context,
	subjectID string,
	topics []entities.Topic,
	cards []entities.Flashcard,
) error {
	upsertTopic := `
		INSERT INTO topics (id, subject_id, title, exam_weight, required_depth, priority_hint, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			exam_weight = EXCLUDED.exam_weight,
			required_depth = EXCLUDED.required_depth,
			priority_hint = EXCLUDED.priority_hint,
			position = EXCLUDED.position
		WHERE topics.subject_id = EXCLUDED.subject_id
	`
	insertEdge := `
		INSERT INTO topic_dependencies (subject_id, topic_id, depends_on)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	upsertCard := `
		INSERT INTO flashcards (id, topic_id, front, back, position)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			topic_id = EXCLUDED.topic_id,
			front = EXCLUDED.front,
			back = EXCLUDED.back,
			position = EXCLUDED.position
	`

	topicIDs := make([]string, 0, len(topics))
	for _, t := range topics {
		topicIDs = append(topicIDs, t.ID)
	}
	cardIDs := make([]string, 0, len(cards))
	for _, c := range cards {
		cardIDs = append(cardIDs, c.ID)
	}

	err := r.transactor.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for i, t := range topics {
			tag, err := tx.Exec(ctx, upsertTopic,
				t.ID, subjectID, t.Title, t.ExamWeight, string(t.RequiredDepth), string(t.PriorityHint), i)
			if err != nil {
				return postgres.MapError(err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: %s belongs to another subject", entities.ErrDuplicateTopic, t.ID)
			}
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM topics WHERE subject_id = $1 AND NOT (id = ANY($2::text[]))`,
			subjectID, topicIDs,
		); err != nil {
			return postgres.MapError(err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM topic_dependencies WHERE subject_id = $1`, subjectID); err != nil {
			return postgres.MapError(err)
		}
		for _, t := range topics {
			for _, dep := range t.Dependencies {
				if _, err := tx.Exec(ctx, insertEdge, subjectID, t.ID, dep); err != nil {
					return postgres.MapError(err)
				}
			}
		}

		for i, c := range cards {
			if _, err := tx.Exec(ctx, upsertCard, c.ID, c.TopicID, c.Front, c.Back, i); err != nil {
				return postgres.MapError(err)
			}
		}

		_, err := tx.Exec(ctx, `
			DELETE FROM flashcards f
			USING topics t
			WHERE t.id = f.topic_id AND t.subject_id = $1 AND NOT (f.id = ANY($2::text[]))
		`, subjectID, cardIDs)
		return postgres.MapError(err)
	})
	if err != nil {
		return fmt.Errorf("save subject %s: %w", subjectID, err)
	}

	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

type topicRow struct {
	ID            string  `db:"id"`
	SubjectID     string  `db:"subject_id"`
	Title         string  `db:"title"`
	ExamWeight    float64 `db:"exam_weight"`
	RequiredDepth string  `db:"required_depth"`
	PriorityHint  string  `db:"priority_hint"`
	Position      int     `db:"position"`
}

func (r topicRow) entity() entities.Topic {
	return entities.Topic{
		ID:            r.ID,
		SubjectID:     r.SubjectID,
		Title:         r.Title,
		ExamWeight:    r.ExamWeight,
		RequiredDepth: entities.Depth(r.RequiredDepth),
		PriorityHint:  entities.PriorityHint(r.PriorityHint),
	}
}

type flashcardRow struct {
	ID       string `db:"id"`
	TopicID  string `db:"topic_id"`
	Front    string `db:"front"`
	Back     string `db:"back"`
	Position int    `db:"position"`
}

// LoadTopics returns the topics of a subject in import order, without
// dependencies; those come from LoadDependencyEdges.
func (s *Store) LoadTopics(ctx context.Context, subjectID string) ([]entities.Topic, error) {
	var rows []topicRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, subject_id, title, exam_weight, required_depth, priority_hint, position
		FROM topics WHERE subject_id = ? ORDER BY position, id`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", mapError(err))
	}

	topics := make([]entities.Topic, 0, len(rows))
	for _, r := range rows {
		topics = append(topics, r.entity())
	}
	return topics, nil
}

func (s *Store) LoadDependencyEdges(ctx context.Context, subjectID string) ([]entities.DependencyEdge, error) {
	var rows []struct {
		TopicID   string `db:"topic_id"`
		DependsOn string `db:"depends_on"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT topic_id, depends_on FROM topic_dependencies
		WHERE subject_id = ? ORDER BY topic_id, depends_on`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load dependency edges: %w", mapError(err))
	}

	edges := make([]entities.DependencyEdge, 0, len(rows))
	for _, r := range rows {
		edges = append(edges, entities.DependencyEdge{TopicID: r.TopicID, DependsOn: r.DependsOn})
	}
	return edges, nil
}

func (s *Store) GetTopic(ctx context.Context, topicID string) (*entities.Topic, error) {
	var row topicRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, subject_id, title, exam_weight, required_depth, priority_hint, position
		FROM topics WHERE id = ?`, topicID)
	if err != nil {
		return nil, fmt.Errorf("get topic %s: %w", topicID, mapError(err))
	}
	t := row.entity()
	return &t, nil
}

func (s *Store) GetFlashcard(ctx context.Context, flashcardID string) (*entities.Flashcard, error) {
	var row flashcardRow
	err := s.db.GetContext(ctx, &row, `SELECT id, topic_id, front, back, position FROM flashcards WHERE id = ?`, flashcardID)
	if err != nil {
		return nil, fmt.Errorf("get flashcard %s: %w", flashcardID, mapError(err))
	}
	return &entities.Flashcard{ID: row.ID, TopicID: row.TopicID, Front: row.Front, Back: row.Back}, nil
}

func (s *Store) ListFlashcards(ctx context.Context, subjectID string) ([]entities.Flashcard, error) {
	var rows []flashcardRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT f.id, f.topic_id, f.front, f.back, f.position
		FROM flashcards f JOIN topics t ON t.id = f.topic_id
		WHERE t.subject_id = ?
		ORDER BY t.position, f.position, f.id`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", mapError(err))
	}

	cards := make([]entities.Flashcard, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, entities.Flashcard{ID: r.ID, TopicID: r.TopicID, Front: r.Front, Back: r.Back})
	}
	return cards, nil
}

// SaveSubject replaces the topics, edges and flashcards of a subject in one
// transaction, keeping ids that survive the import.
func (s *Store) SaveSubject(ctx context.Context, subjectID string, topics []entities.Topic, cards []entities.Flashcard) error {
	err := s.withinTx(ctx, func(tx *sqlx.Tx) error {
		keepTopics := make([]string, 0, len(topics))
		for i, t := range topics {
			var owner string
			err := tx.GetContext(ctx, &owner, `SELECT subject_id FROM topics WHERE id = ?`, t.ID)
			switch {
			case err == nil && owner != subjectID:
				return fmt.Errorf("%w: %s belongs to subject %s", entities.ErrDuplicateTopic, t.ID, owner)
			case err != nil && !errors.Is(err, sql.ErrNoRows):
				return mapError(err)
			}

			row := topicRow{
				ID:            t.ID,
				SubjectID:     subjectID,
				Title:         t.Title,
				ExamWeight:    t.ExamWeight,
				RequiredDepth: string(t.RequiredDepth),
				PriorityHint:  string(t.PriorityHint),
				Position:      i,
			}
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO topics (id, subject_id, title, exam_weight, required_depth, priority_hint, position)
				VALUES (:id, :subject_id, :title, :exam_weight, :required_depth, :priority_hint, :position)
				ON CONFLICT (id) DO UPDATE SET
					title = excluded.title,
					exam_weight = excluded.exam_weight,
					required_depth = excluded.required_depth,
					priority_hint = excluded.priority_hint,
					position = excluded.position`, row); err != nil {
				return mapError(err)
			}
			keepTopics = append(keepTopics, t.ID)
		}

		if err := deleteMissing(ctx, tx,
			`DELETE FROM topics WHERE subject_id = ? AND id NOT IN (?)`, subjectID, keepTopics); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM topic_dependencies WHERE subject_id = ?`, subjectID); err != nil {
			return mapError(err)
		}
		for _, t := range topics {
			for _, dep := range t.Dependencies {
				if _, err := tx.ExecContext(ctx, `
					INSERT OR IGNORE INTO topic_dependencies (subject_id, topic_id, depends_on)
					VALUES (?, ?, ?)`, subjectID, t.ID, dep); err != nil {
					return mapError(err)
				}
			}
		}

		keepCards := make([]string, 0, len(cards))
		for i, c := range cards {
			row := flashcardRow{ID: c.ID, TopicID: c.TopicID, Front: c.Front, Back: c.Back, Position: i}
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO flashcards (id, topic_id, front, back, position)
				VALUES (:id, :topic_id, :front, :back, :position)
				ON CONFLICT (id) DO UPDATE SET
					topic_id = excluded.topic_id,
					front = excluded.front,
					back = excluded.back,
					position = excluded.position`, row); err != nil {
				return mapError(err)
			}
			keepCards = append(keepCards, c.ID)
		}

		return deleteMissing(ctx, tx, `
			DELETE FROM flashcards
			WHERE topic_id IN (SELECT id FROM topics WHERE subject_id = ?) AND id NOT IN (?)`,
			subjectID, keepCards)
	})
	if err != nil {
		return fmt.Errorf("save subject %s: %w", subjectID, err)
	}
	return nil
}

// deleteMissing runs a "NOT IN (?)" delete, expanding keep with sqlx.In.
// An empty keep list deletes everything the subject filter matches.
func deleteMissing(ctx context.Context, tx *sqlx.Tx, query, subjectID string, keep []string) error {
	if len(keep) == 0 {
		keep = []string{""}
	}
	q, args, err := sqlx.In(query, subjectID, keep)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(q), args...); err != nil {
		return mapError(err)
	}
	return nil
}

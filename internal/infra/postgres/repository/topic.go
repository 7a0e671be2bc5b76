package repository

import (
	"context"
	"fmt"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/infra/postgres"
)

// TopicRepository provides access to topics and their dependency edges.
// Dependencies are stored as edges only; LoadTopics returns topics without
// them and callers merge LoadDependencyEdges in.
type TopicRepository struct {
	db postgres.DBTX
}

func NewTopicRepository(db postgres.DBTX) *TopicRepository {
	return &TopicRepository{db: db}
}

const topicColumns = `id, subject_id, title, exam_weight, required_depth, priority_hint`

// LoadTopics returns the topics of a subject in import order.
func (r *TopicRepository) LoadTopics(ctx context.Context, subjectID string) ([]entities.Topic, error) {
	query := `SELECT ` + topicColumns + `
		FROM topics
		WHERE subject_id = $1
		ORDER BY position, id
	`

	rows, err := r.db.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var topics []entities.Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan topic: %w", postgres.MapError(err))
		}
		topics = append(topics, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", postgres.MapError(err))
	}

	return topics, nil
}

// LoadDependencyEdges returns every prerequisite edge of a subject.
func (r *TopicRepository) LoadDependencyEdges(ctx context.Context, subjectID string) ([]entities.DependencyEdge, error) {
	query := `
		SELECT topic_id, depends_on
		FROM topic_dependencies
		WHERE subject_id = $1
		ORDER BY topic_id, depends_on
	`

	rows, err := r.db.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load dependency edges: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var edges []entities.DependencyEdge
	for rows.Next() {
		var e entities.DependencyEdge
		if err := rows.Scan(&e.TopicID, &e.DependsOn); err != nil {
			return nil, fmt.Errorf("scan edge: %w", postgres.MapError(err))
		}
		edges = append(edges, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", postgres.MapError(err))
	}

	return edges, nil
}

// GetTopic retrieves a topic by ID, without its dependencies.
func (r *TopicRepository) GetTopic(ctx context.Context, topicID string) (*entities.Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics WHERE id = $1`

	t, err := scanTopic(r.db.QueryRow(ctx, query, topicID))
	if err != nil {
		return nil, fmt.Errorf("get topic %s: %w", topicID, postgres.MapError(err))
	}
	return t, nil
}

func scanTopic(row rowScanner) (*entities.Topic, error) {
	var (
		t     entities.Topic
		depth string
		hint  string
	)

	if err := row.Scan(&t.ID, &t.SubjectID, &t.Title, &t.ExamWeight, &depth, &hint); err != nil {
		return nil, err
	}

	t.RequiredDepth = entities.Depth(depth)
	t.PriorityHint = entities.PriorityHint(hint)
	return &t, nil
}

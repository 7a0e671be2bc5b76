package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/domain/graph"
	"github.com/aliskhannn/study-planner-bot/internal/domain/srs"
)

// ProgressService handles topic progress of users.
type ProgressService struct {
	topics   TopicRepository
	progress ProgressRepository
	reviews  ReviewItemRepository
	retry    RetryPolicy
	logger   *zap.Logger
}

// NewProgressService creates a new progress service.
func NewProgressService(
	topics TopicRepository,
	progress ProgressRepository,
	reviews ReviewItemRepository,
	retry RetryPolicy,
	logger *zap.Logger,
) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		topics:   topics,
		progress: progress,
		reviews:  reviews,
		retry:    retry.withDefaults(),
		logger:   logger,
	}
}

// SetTopicStatus moves a topic of the user to status. Starting or completing
// a topic whose prerequisites are not all completed fails with
// entities.ErrTopicLocked.
func (s *ProgressService) SetTopicStatus(
	ctx context.Context,
	userID, topicID string,
	status entities.ProgressStatus,
	now time.Time,
) (*entities.ProgressRecord, error) {
	if _, err := entities.ParseProgressStatus(string(status)); err != nil {
		return nil, err
	}

	topic, err := s.topics.GetTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}

	if status != entities.StatusNotStarted {
		unlocked, err := s.isUnlocked(ctx, userID, *topic)
		if err != nil {
			return nil, err
		}
		if !unlocked {
			return nil, fmt.Errorf("%w: %s", entities.ErrTopicLocked, topicID)
		}
	}

	record, err := s.update(ctx, userID, topicID, now, func(r *entities.ProgressRecord) error {
		return r.Transition(status, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("topic status changed",
		zap.String("user_id", userID),
		zap.String("topic_id", topicID),
		zap.String("status", string(status)),
	)

	return record, nil
}

// LogTime adds study minutes to a topic of the user.
func (s *ProgressService) LogTime(ctx context.Context, userID, topicID string, minutes int, now time.Time) (*entities.ProgressRecord, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("log time: minutes must be positive, got %d", minutes)
	}

	if _, err := s.topics.GetTopic(ctx, topicID); err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}

	return s.update(ctx, userID, topicID, now, func(r *entities.ProgressRecord) error {
		r.AddTime(minutes, now)
		return nil
	})
}

// forecastDays is the horizon of the review forecast in summaries.
const forecastDays = 7

// Summary aggregates the progress of a user in a subject.
func (s *ProgressService) Summary(ctx context.Context, userID, subjectID string, now time.Time) (*entities.ProgressSummary, error) {
	topics, err := s.loadTopics(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	g, err := graph.Build(topics)
	if err != nil {
		return nil, err
	}

	records, err := s.progress.LoadProgress(ctx, userID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	byTopic := entities.ProgressByTopic(records)

	var (
		summary       entities.ProgressSummary
		totalWeight   float64
		doneWeight    float64
		subjectTopics = make(map[string]struct{}, g.Len())
	)

	summary.TotalTopics = g.Len()
	for id, status := range graph.UnlockState(g, byTopic) {
		t, _ := g.Topic(id)
		subjectTopics[id] = struct{}{}
		totalWeight += t.ExamWeight

		switch status {
		case entities.UnlockCompleted:
			summary.Completed++
			doneWeight += t.ExamWeight
		case entities.UnlockInProgress:
			summary.InProgress++
		case entities.UnlockLocked:
			summary.Locked++
			summary.NotStarted++
		default:
			summary.NotStarted++
		}

		if r, ok := byTopic[id]; ok {
			summary.TimeSpentMinutes += r.TimeSpentMinutes
		}
	}
	if totalWeight > 0 {
		summary.WeightedCompleted = doneWeight / totalWeight * 100
	}

	items, err := s.reviews.ListReviewItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list review items: %w", err)
	}

	var subjectItems []entities.ReviewItem
	for _, item := range items {
		if _, ok := subjectTopics[item.TopicID]; ok {
			subjectItems = append(subjectItems, item)
		}
	}

	summary.TotalReviews = len(subjectItems)
	summary.DueReviews = len(srs.SelectDue(subjectItems, now, ""))
	summary.Forecast = srs.Forecast(subjectItems, now, forecastDays)
	for _, item := range subjectItems {
		if srs.IsMastered(item) {
			summary.MasteredReviews++
		}
	}

	return &summary, nil
}

func (s *ProgressService) isUnlocked(ctx context.Context, userID string, topic entities.Topic) (bool, error) {
	topics, err := s.loadTopics(ctx, topic.SubjectID)
	if err != nil {
		return false, err
	}
	for _, t := range topics {
		if t.ID == topic.ID {
			topic = t
			break
		}
	}

	records, err := s.progress.LoadProgress(ctx, userID, topic.SubjectID)
	if err != nil {
		return false, fmt.Errorf("load progress: %w", err)
	}

	return graph.IsUnlocked(topic, entities.ProgressByTopic(records)), nil
}

// loadTopics returns the subject's topics with stored edges merged in.
func (s *ProgressService) loadTopics(ctx context.Context, subjectID string) ([]entities.Topic, error) {
	topics, err := s.topics.LoadTopics(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	edges, err := s.topics.LoadDependencyEdges(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load dependency edges: %w", err)
	}
	return entities.MergeEdges(topics, edges)
}

// update applies mutate to the user's record of topicID and saves it. A
// version conflict means another update won; the record is re-read and
// mutate applied again.
func (s *ProgressService) update(
	ctx context.Context,
	userID, topicID string,
	now time.Time,
	mutate func(*entities.ProgressRecord) error,
) (*entities.ProgressRecord, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retry.InitialInterval

	operation := func() (*entities.ProgressRecord, error) {
		record, err := s.record(ctx, userID, topicID, now)
		if err != nil {
			return nil, classify(err)
		}
		if err := mutate(record); err != nil {
			return nil, backoff.Permanent(err)
		}
		if err := s.progress.UpsertProgress(ctx, record); err != nil {
			return nil, classify(fmt.Errorf("upsert progress: %w", err))
		}
		return record, nil
	}

	record, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.retry.MaxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			s.logger.Warn("retrying progress save",
				zap.String("user_id", userID),
				zap.String("topic_id", topicID),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, unwrapPermanent(err)
	}
	return record, nil
}

// record returns the stored progress record or a fresh one.
func (s *ProgressService) record(ctx context.Context, userID, topicID string, now time.Time) (*entities.ProgressRecord, error) {
	record, err := s.progress.GetProgress(ctx, userID, topicID)
	if err == nil {
		return record, nil
	}
	if errors.Is(err, entities.ErrNotFound) {
		return entities.NewProgressRecord(userID, topicID, now), nil
	}
	return nil, fmt.Errorf("get progress: %w", err)
}

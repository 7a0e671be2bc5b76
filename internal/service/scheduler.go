package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/domain/graph"
	"github.com/aliskhannn/study-planner-bot/internal/domain/ranking"
	"github.com/aliskhannn/study-planner-bot/internal/domain/srs"
)

// RetryPolicy bounds how often a review save is retried after a version
// conflict or a transient store failure.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
}

// DefaultRetryPolicy is used when a zero policy is passed.
var DefaultRetryPolicy = RetryPolicy{MaxTries: 5, InitialInterval: 50 * time.Millisecond}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxTries == 0 {
		p.MaxTries = DefaultRetryPolicy.MaxTries
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = DefaultRetryPolicy.InitialInterval
	}
	return p
}

// SchedulerService combines the graph, ranking and review engines with the
// store. It answers "what to study next" and records review grades.
type SchedulerService struct {
	topics    TopicRepository
	progress  ProgressRepository
	reviews   ReviewItemRepository
	cards     FlashcardRepository
	ranker    *ranking.Ranker
	scheduler *srs.Scheduler
	retry     RetryPolicy
	logger    *zap.Logger
}

// NewSchedulerService creates a new scheduler service.
func NewSchedulerService(
	topics TopicRepository,
	progress ProgressRepository,
	reviews ReviewItemRepository,
	cards FlashcardRepository,
	ranker *ranking.Ranker,
	scheduler *srs.Scheduler,
	retry RetryPolicy,
	logger *zap.Logger,
) *SchedulerService {
	retry = retry.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulerService{
		topics:    topics,
		progress:  progress,
		reviews:   reviews,
		cards:     cards,
		ranker:    ranker,
		scheduler: scheduler,
		retry:     retry,
		logger:    logger,
	}
}

// GetStudyPlan returns the bucketed study queue of a user in a subject.
// Graph errors (cycles, dangling references) are returned unchanged.
func (s *SchedulerService) GetStudyPlan(ctx context.Context, userID, subjectID string) (*entities.StudyPlan, error) {
	g, res, err := s.rank(ctx, userID, subjectID)
	if err != nil {
		return nil, err
	}

	plan := &entities.StudyPlan{
		UserID:                userID,
		SubjectID:             subjectID,
		High:                  views(res.High),
		Medium:                views(res.Medium),
		Low:                   views(res.Low),
		AwaitingPrerequisites: views(res.Awaiting),
		Completed:             len(res.Completed),
	}

	s.logger.Debug("study plan built",
		zap.String("user_id", userID),
		zap.String("subject_id", subjectID),
		zap.Int("topics", g.Len()),
		zap.Int("active", len(plan.Active())),
		zap.Int("awaiting", len(plan.AwaitingPrerequisites)),
	)

	return plan, nil
}

// rank loads the subject concurrently and ranks it.
func (s *SchedulerService) rank(ctx context.Context, userID, subjectID string) (*graph.Graph, ranking.Result, error) {
	var (
		topics  []entities.Topic
		edges   []entities.DependencyEdge
		records []entities.ProgressRecord
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if topics, err = s.topics.LoadTopics(egCtx, subjectID); err != nil {
			return fmt.Errorf("load topics: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if edges, err = s.topics.LoadDependencyEdges(egCtx, subjectID); err != nil {
			return fmt.Errorf("load dependency edges: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if records, err = s.progress.LoadProgress(egCtx, userID, subjectID); err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, ranking.Result{}, err
	}

	merged, err := entities.MergeEdges(topics, edges)
	if err != nil {
		return nil, ranking.Result{}, err
	}
	g, err := graph.Build(merged)
	if err != nil {
		return nil, ranking.Result{}, err
	}

	return g, s.ranker.Rank(g, entities.ProgressByTopic(records)), nil
}

func views(ranked []ranking.Ranked) []entities.TopicView {
	out := make([]entities.TopicView, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, entities.TopicView{
			ID:         r.Topic.ID,
			Title:      r.Topic.Title,
			ExamWeight: r.Topic.ExamWeight,
			Status:     r.Status,
			Score:      r.Score,
			Blockers:   r.Blockers,
		})
	}
	return out
}

// RecordReview applies a graded review to an item and persists it.
// The grade is validated before the store is touched. Version conflicts and
// transient store failures re-read the item and retry with backoff, so two
// concurrent reviews of one item are both applied in sequence.
// A zero now means time.Now().
func (s *SchedulerService) RecordReview(
	ctx context.Context,
	userID, itemID string,
	grade entities.Grade,
	now time.Time,
) (*entities.ReviewItem, error) {
	grade, err := entities.ParseGrade(string(grade))
	if err != nil {
		return nil, err
	}
	if now.IsZero() {
		now = time.Now()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retry.InitialInterval

	attempt := 0
	operation := func() (*entities.ReviewItem, error) {
		attempt++

		item, err := s.reviews.LoadReviewItem(ctx, userID, itemID)
		if err != nil {
			return nil, classify(fmt.Errorf("load review item: %w", err))
		}

		next, err := s.scheduler.Review(*item, grade, now)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		reviewLog, err := srs.Log(next)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		if err := s.reviews.SaveReviewItem(ctx, &next, &reviewLog); err != nil {
			return nil, classify(fmt.Errorf("save review item: %w", err))
		}

		return &next, nil
	}

	item, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.retry.MaxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			s.logger.Warn("retrying review save",
				zap.String("user_id", userID),
				zap.String("item_id", itemID),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, unwrapPermanent(err)
	}

	s.logger.Info("review recorded",
		zap.String("user_id", userID),
		zap.String("item_id", itemID),
		zap.String("grade", string(grade)),
		zap.Float64("interval_days", item.IntervalDays),
		zap.Time("due", item.DueDate),
	)

	return item, nil
}

// classify marks errors that a retry cannot fix as permanent.
func classify(err error) error {
	if errors.Is(err, entities.ErrVersionConflict) || errors.Is(err, entities.ErrStoreUnavailable) {
		return err
	}
	return backoff.Permanent(err)
}

func unwrapPermanent(err error) error {
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Unwrap()
	}
	return err
}

// DueReviews returns up to limit items due at now, optionally limited to one
// topic. A limit <= 0 returns every due item.
func (s *SchedulerService) DueReviews(
	ctx context.Context,
	userID, topicID string,
	now time.Time,
	limit int,
) ([]entities.ReviewItem, error) {
	items, err := s.reviews.ListReviewItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list review items: %w", err)
	}

	due := srs.SelectDue(items, now, topicID)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// EnrollSubject creates a review item for every flashcard of the subject the
// user does not review yet. It returns how many items were created.
func (s *SchedulerService) EnrollSubject(ctx context.Context, userID, subjectID string, now time.Time) (int, error) {
	cards, err := s.cards.ListFlashcards(ctx, subjectID)
	if err != nil {
		return 0, fmt.Errorf("list flashcards: %w", err)
	}

	existing, err := s.reviews.ListReviewItems(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list review items: %w", err)
	}

	known := make(map[string]struct{}, len(existing))
	for _, item := range existing {
		known[item.FlashcardID] = struct{}{}
	}

	var items []entities.ReviewItem
	for _, card := range cards {
		if _, ok := known[card.ID]; ok {
			continue
		}
		items = append(items, s.scheduler.NewItem(userID, card.ID, card.TopicID, now))
	}
	if len(items) == 0 {
		return 0, nil
	}

	created, err := s.reviews.CreateReviewItems(ctx, items)
	if err != nil {
		return 0, fmt.Errorf("create review items: %w", err)
	}

	s.logger.Info("subject enrolled",
		zap.String("user_id", userID),
		zap.String("subject_id", subjectID),
		zap.Int("created", created),
	)

	return created, nil
}

// Flashcard returns the content of a flashcard.
func (s *SchedulerService) Flashcard(ctx context.Context, flashcardID string) (*entities.Flashcard, error) {
	card, err := s.cards.GetFlashcard(ctx, flashcardID)
	if err != nil {
		return nil, fmt.Errorf("get flashcard: %w", err)
	}
	return card, nil
}

// ReviewItem returns one review item of the user.
func (s *SchedulerService) ReviewItem(ctx context.Context, userID, itemID string) (*entities.ReviewItem, error) {
	item, err := s.reviews.LoadReviewItem(ctx, userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("load review item: %w", err)
	}
	return item, nil
}

// ReviewHistory is the stored state of an item next to the state rebuilt
// from its review log.
type ReviewHistory struct {
	Item     entities.ReviewItem
	Logs     []entities.ReviewLog
	Replayed entities.ReviewItem
}

// Consistent reports whether replaying the log reproduces the stored state.
func (h *ReviewHistory) Consistent() bool {
	return h.Item.RepetitionCount == h.Replayed.RepetitionCount &&
		h.Item.EasinessFactor == h.Replayed.EasinessFactor &&
		h.Item.IntervalDays == h.Replayed.IntervalDays &&
		h.Item.DueDate.Equal(h.Replayed.DueDate)
}

// ReviewHistory loads the review log of an item and replays it from the
// item's initial state.
func (s *SchedulerService) ReviewHistory(ctx context.Context, userID, itemID string) (*ReviewHistory, error) {
	item, err := s.reviews.LoadReviewItem(ctx, userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("load review item: %w", err)
	}

	logs, err := s.reviews.ListReviewLogs(ctx, userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("list review logs: %w", err)
	}

	initial := s.scheduler.NewItem(item.UserID, item.FlashcardID, item.TopicID, item.CreatedAt)
	initial.ID = item.ID

	replayed, err := s.scheduler.Replay(initial, logs)
	if err != nil {
		return nil, err
	}

	return &ReviewHistory{Item: *item, Logs: logs, Replayed: replayed}, nil
}

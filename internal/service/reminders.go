package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/domain/srs"
)

// ReminderOptions configures the reminder loop.
type ReminderOptions struct {
	Schedule      string        // cron spec, evaluated in UTC
	MinGap        time.Duration // minimum time between two reminders of one user
	RatePerSecond float64       // outgoing message rate
	MaxConcurrent int64
}

// DefaultReminderOptions sends at most hourly, every four hours per user.
var DefaultReminderOptions = ReminderOptions{
	Schedule:      "0 * * * *",
	MinGap:        4 * time.Hour,
	RatePerSecond: 25,
	MaxConcurrent: 10,
}

// ReminderService notifies users who have due reviews.
type ReminderService struct {
	users    UserRepository
	reviews  ReviewItemRepository
	topics   TopicRepository
	notifier ReminderNotifier
	opts     ReminderOptions
	limiter  *rate.Limiter
	logger   *zap.Logger
	now      func() time.Time
}

// NewReminderService creates a new reminder service.
func NewReminderService(
	users UserRepository,
	reviews ReviewItemRepository,
	topics TopicRepository,
	opts ReminderOptions,
	logger *zap.Logger,
) *ReminderService {
	if opts.Schedule == "" {
		opts.Schedule = DefaultReminderOptions.Schedule
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = DefaultReminderOptions.RatePerSecond
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultReminderOptions.MaxConcurrent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{
		users:   users,
		reviews: reviews,
		topics:  topics,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		logger:  logger,
		now:     time.Now,
	}
}

// SetNotifier sets the notifier (called after handler is created).
func (s *ReminderService) SetNotifier(notifier ReminderNotifier) {
	s.notifier = notifier
}

// Start runs the reminder schedule until ctx is cancelled.
func (s *ReminderService) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.opts.Schedule, func() {
		s.logger.Info("cron triggered: processing reminders")
		sent, err := s.SendDueReminders(ctx)
		if err != nil {
			s.logger.Error("failed to send reminders", zap.Error(err))
			return
		}
		s.logger.Info("reminders processed", zap.Int("total_sent", sent))
	})
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}

	c.Start()
	s.logger.Info("reminder service started", zap.String("schedule", s.opts.Schedule))

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("reminder service stopped")
	return nil
}

// SendDueReminders notifies every reminder target with due reviews and
// returns how many reminders were sent.
func (s *ReminderService) SendDueReminders(ctx context.Context) (int, error) {
	if s.notifier == nil {
		return 0, errors.New("notifier not initialized")
	}

	users, err := s.users.ListReminderTargets(ctx)
	if err != nil {
		return 0, fmt.Errorf("list reminder targets: %w", err)
	}

	now := s.now().UTC()
	sem := semaphore.NewWeighted(s.opts.MaxConcurrent)
	var (
		wg   sync.WaitGroup
		sent atomic.Int64
	)

	for _, user := range users {
		if !user.CanRemind(now, s.opts.MinGap) {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			ok, err := s.remind(ctx, user, now)
			if err != nil {
				s.logger.Error("failed to process reminder",
					zap.String("user_id", user.ID),
					zap.Error(err))
				return
			}
			if ok {
				sent.Add(1)
			}
		}()
	}

	wg.Wait()
	return int(sent.Load()), ctx.Err()
}

// remind sends one reminder if the user has due reviews.
func (s *ReminderService) remind(ctx context.Context, user entities.User, now time.Time) (bool, error) {
	items, err := s.reviews.ListReviewItems(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("list review items: %w", err)
	}

	due := srs.SelectDue(items, now, "")
	if len(due) == 0 {
		s.logger.Debug("nothing due", zap.String("user_id", user.ID))
		return false, nil
	}

	payload := entities.ReminderPayload{DueCount: len(due)}
	if topicID := due[0].TopicID; topicID != "" {
		payload.NextTopic = topicID
		if topic, err := s.topics.GetTopic(ctx, topicID); err == nil {
			payload.NextTopic = topic.Title
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return false, err
	}

	if err := s.notifier.SendReminder(user.ChatID, payload); err != nil {
		return false, fmt.Errorf("send notification: %w", err)
	}

	if err := s.users.MarkReminded(ctx, user.ID, now); err != nil {
		return false, fmt.Errorf("mark reminded: %w", err)
	}

	s.logger.Info("reminder sent",
		zap.String("user_id", user.ID),
		zap.Int("due", payload.DueCount),
	)
	return true, nil
}

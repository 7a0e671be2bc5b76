package app

import (
	"go.uber.org/zap"

	"github.com/aliskhannn/study-planner-bot/internal/config"
	"github.com/aliskhannn/study-planner-bot/internal/domain/ranking"
	"github.com/aliskhannn/study-planner-bot/internal/domain/srs"
	"github.com/aliskhannn/study-planner-bot/internal/service"
)

// Services are the application services built on one store.
type Services struct {
	Scheduler *service.SchedulerService
	Progress  *service.ProgressService
	Users     *service.UserService
	Reminders *service.ReminderService
}

// NewServices builds the services with the tuning of cfg.
func NewServices(cfg *config.Config, store service.Store, logger *zap.Logger) *Services {
	m := cfg.Ranking.DepthMultipliers
	ranker := ranking.NewRanker(ranking.Multipliers{
		Master:     m.Master,
		Understand: m.Understand,
		Familiar:   m.Familiar,
	})

	scheduler := srs.NewScheduler(srs.Params{
		MinEasiness:     cfg.Scheduler.MinEasiness,
		InitialEasiness: cfg.Scheduler.InitialEasiness,
		MaxIntervalDays: cfg.Scheduler.MaxIntervalDays,
	})

	retry := service.RetryPolicy{
		MaxTries:        cfg.Scheduler.RetryAttempts,
		InitialInterval: cfg.Scheduler.RetryInitialInterval,
	}

	return &Services{
		Scheduler: service.NewSchedulerService(store, store, store, store, ranker, scheduler, retry, logger),
		Progress:  service.NewProgressService(store, store, store, retry, logger),
		Users:     service.NewUserService(store),
		Reminders: service.NewReminderService(store, store, store, service.ReminderOptions{
			Schedule:      cfg.Reminders.Schedule,
			MinGap:        cfg.Reminders.MinGap,
			RatePerSecond: cfg.Reminders.RatePerSecond,
			MaxConcurrent: int64(cfg.Reminders.MaxConcurrent),
		}, logger),
	}
}

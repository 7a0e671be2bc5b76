package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/study-planner-bot/internal/app"
	"github.com/aliskhannn/study-planner-bot/internal/config"
	"github.com/aliskhannn/study-planner-bot/internal/delivery/telegram"
	"github.com/aliskhannn/study-planner-bot/internal/logger"
	"github.com/aliskhannn/study-planner-bot/internal/storage"
)

func main() {
	cfg, err := config.Load(config.Options{RequireToken: true})
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil && !errors.Is(err, context.Canceled) {
		lg.Fatal("bot stopped with error", zap.Error(err))
	}
	lg.Info("shutdown complete")
}

func run(cfg *config.Config, lg *zap.Logger) error {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return err
	}
	bot.Debug = cfg.Env == "local"
	lg.Info("authorized", zap.String("account", bot.Self.UserName))

	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "plan", Description: "Ranked study plan of a subject"},
		{Command: "enroll", Description: "Add a subject's flashcards to your reviews"},
		{Command: "review", Description: "Review due flashcards"},
		{Command: "begin", Description: "Start a topic"},
		{Command: "done", Description: "Complete a topic"},
		{Command: "log", Description: "Log study time on a topic"},
		{Command: "stats", Description: "Progress of a subject"},
		{Command: "reminders", Description: "Turn reminders on or off"},
		{Command: "help", Description: "Help"},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg.DB, lg)
	if err != nil {
		return err
	}
	defer closeStore()

	services := app.NewServices(cfg, store, lg)

	handler := telegram.NewHandler(
		bot,
		lg,
		services.Users,
		services.Scheduler,
		services.Progress,
		storage.NewSessionStorage(),
		storage.NewReminderStorage(),
	)
	services.Reminders.SetNotifier(handler)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer bot.StopReceivingUpdates()
		return handler.Run(ctx)
	})
	if cfg.Reminders.Enabled {
		g.Go(func() error {
			return services.Reminders.Start(ctx)
		})
	}

	return g.Wait()
}

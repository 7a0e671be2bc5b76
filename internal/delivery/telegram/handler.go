package telegram

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// reviewBatch caps the number of cards in one review session.
const reviewBatch = 20

type Handler struct {
	bot              Bot
	logger           *zap.Logger
	userService      UserService
	schedulerService SchedulerService
	progressService  ProgressService
	sessions         SessionStorage
	reminders        ReminderStorage
	now              func() time.Time
}

func NewHandler(
	bot Bot,
	logger *zap.Logger,
	userService UserService,
	schedulerService SchedulerService,
	progressService ProgressService,
	sessions SessionStorage,
	reminders ReminderStorage,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		bot:              bot,
		logger:           logger,
		userService:      userService,
		schedulerService: schedulerService,
		progressService:  progressService,
		sessions:         sessions,
		reminders:        reminders,
		now:              time.Now,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	from := update.Message.From
	chatID := update.Message.Chat.ID
	userID := userKey(from.ID)

	if _, err := h.userService.EnsureUser(ctx, userID, chatID, h.now()); err != nil {
		h.logger.Error("failed to ensure user",
			zap.Int64("user_id", from.ID),
			zap.Error(err),
		)
	}

	if !update.Message.IsCommand() {
		h.send(newHTMLMessage(chatID, msgUseCommands))
		return
	}

	args := update.Message.CommandArguments()

	var fn HandlerFunc
	switch update.Message.Command() {
	case "start":
		fn = h.handleStart()
	case "help":
		fn = h.handleHelp()
	case "plan":
		fn = h.handlePlan(userID, args)
	case "enroll":
		fn = h.handleEnroll(userID, args)
	case "begin":
		fn = h.handleStatus(userID, args, statusBegin)
	case "done":
		fn = h.handleStatus(userID, args, statusDone)
	case "reopen":
		fn = h.handleStatus(userID, args, statusReopen)
	case "log":
		fn = h.handleLogTime(userID, args)
	case "review":
		fn = h.handleReview(userID, args)
	case "stats":
		fn = h.handleStats(userID, args)
	case "reminders":
		fn = h.handleReminders(userID)
	default:
		h.send(newHTMLMessage(chatID, msgUnknownCommand))
		return
	}

	_ = h.withErrorHandling(fn)(ctx, chatID)
}

// send delivers c and logs a failure.
func (h *Handler) send(c tgbotapi.Chattable) (tgbotapi.Message, bool) {
	m, err := h.bot.Send(c)
	if err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
		return m, false
	}
	return m, true
}

func (h *Handler) sendError(chatID int64, text string) {
	h.send(newHTMLMessage(chatID, text))
}

func userKey(telegramID int64) string {
	return strconv.FormatInt(telegramID, 10)
}

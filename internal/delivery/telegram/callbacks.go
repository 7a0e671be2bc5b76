package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

// errStaleCallback marks a button of a session that moved on or ended.
var errStaleCallback = errors.New("stale callback")

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		h.answer(cb, "")
		return
	}

	cd := decodeCallback(cb.Data)
	userID := userKey(cb.From.ID)

	var err error
	switch cd.Action {
	case actionPlan:
		err = h.refreshPlan(ctx, cb, userID, cd.param(0))
	case actionReview:
		err = h.handleReviewCallback(ctx, cb, userID, cd)
	case actionReminder:
		err = h.handleReminderCallback(ctx, cb, userID, cd)
	case actionSettings:
		err = h.handleSettingsCallback(ctx, cb, userID, cd)
	default:
		h.logger.Debug("unknown callback", zap.String("data", cb.Data))
	}

	if err == nil {
		h.answer(cb, "")
		return
	}

	text := msgSessionExpired
	if !errors.Is(err, errStaleCallback) {
		var known bool
		text, known = userMessage(err)
		if !known {
			h.logger.Error("callback failed",
				zap.Int64("chat_id", cb.Message.Chat.ID),
				zap.String("data", cb.Data),
				zap.Error(err),
			)
		}
	}
	h.answer(cb, text)
}

// answer removes the user's "clock", optionally showing text.
func (h *Handler) answer(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		h.logger.Warn("callback answer error", zap.Error(err))
	}
}

func (h *Handler) refreshPlan(ctx context.Context, cb *tgbotapi.CallbackQuery, userID, subjectID string) error {
	if subjectID == "" {
		return errStaleCallback
	}

	plan, err := h.schedulerService.GetStudyPlan(ctx, userID, subjectID)
	if err != nil {
		return err
	}

	kb := buildPlanKeyboard(subjectID)
	h.send(newHTMLEdit(cb.Message.Chat.ID, cb.Message.MessageID, renderPlan(plan), &kb))
	return nil
}

func (h *Handler) handleReviewCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, userID string, cd callbackData) error {
	chatID := cb.Message.Chat.ID

	switch cd.param(0) {
	case reviewStart:
		return h.startReview(ctx, chatID, userID, cd.param(1))
	case reviewShow:
		return h.revealCard(ctx, cb, userID, cd.param(1))
	case reviewGrade:
		return h.gradeCard(ctx, cb, userID, cd.param(1), entities.Grade(cd.param(2)))
	case reviewStop:
		h.sessions.Delete(chatID)
		h.send(newHTMLEdit(chatID, cb.Message.MessageID, msgSessionStopped, nil))
		return nil
	}
	return errStaleCallback
}

// currentPosition returns the 1-based position of itemID in the chat's
// session, failing when it is not the card under review.
func (h *Handler) currentPosition(chatID int64, itemID string) (position, total int, err error) {
	session, ok := h.sessions.Get(chatID)
	if !ok {
		return 0, 0, errStaleCallback
	}
	if current, ok := session.Current(); !ok || current != itemID {
		return 0, 0, errStaleCallback
	}
	return session.Position + 1, len(session.ItemIDs), nil
}

func (h *Handler) revealCard(ctx context.Context, cb *tgbotapi.CallbackQuery, userID, itemID string) error {
	chatID := cb.Message.Chat.ID

	position, total, err := h.currentPosition(chatID, itemID)
	if err != nil {
		return err
	}

	card, err := h.cardFor(ctx, userID, itemID)
	if err != nil {
		return err
	}

	kb := buildGradeKeyboard(itemID)
	h.send(newHTMLEdit(chatID, cb.Message.MessageID, renderCardBack(card, position, total), &kb))
	return nil
}

func (h *Handler) gradeCard(ctx context.Context, cb *tgbotapi.CallbackQuery, userID, itemID string, grade entities.Grade) error {
	chatID := cb.Message.Chat.ID

	position, total, err := h.currentPosition(chatID, itemID)
	if err != nil {
		return err
	}

	now := h.now()
	item, err := h.schedulerService.RecordReview(ctx, userID, itemID, grade, now)
	if err != nil {
		return err
	}

	card, err := h.schedulerService.Flashcard(ctx, item.FlashcardID)
	if err != nil {
		return err
	}
	h.send(newHTMLEdit(chatID, cb.Message.MessageID, renderGraded(card, grade, item, now), nil))

	next, reviewed, ok := h.sessions.Advance(chatID)
	if !ok {
		h.send(newHTMLMessage(chatID, renderSessionDone(reviewed)))
		return nil
	}
	return h.sendCard(ctx, chatID, userID, next, position+1, total)
}

func (h *Handler) handleReminderCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, userID string, cd callbackData) error {
	chatID := cb.Message.Chat.ID

	switch cd.param(0) {
	case reminderReview:
		h.reminders.Delete(chatID)
		return h.startReview(ctx, chatID, userID, "")
	case reminderDisable:
		if err := h.userService.SetReminders(ctx, userID, false); err != nil {
			return err
		}
		h.reminders.Delete(chatID)
		kb := buildSettingsKeyboard(false)
		h.send(newHTMLEdit(chatID, cb.Message.MessageID, msgRemindersOff, &kb))
		return nil
	}
	return errStaleCallback
}

func (h *Handler) handleSettingsCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, userID string, cd callbackData) error {
	if cd.param(0) != settingsReminders {
		return errStaleCallback
	}

	enabled, err := h.userService.ToggleReminders(ctx, userID)
	if err != nil {
		return err
	}

	kb := buildSettingsKeyboard(enabled)
	h.send(newHTMLEdit(cb.Message.Chat.ID, cb.Message.MessageID, remindersText(enabled), &kb))
	return nil
}

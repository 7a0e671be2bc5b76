package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/storage"
)

// SendReminder sends a due-review reminder and removes the previous one, so a
// chat shows at most one pending reminder.
func (h *Handler) SendReminder(chatID int64, payload entities.ReminderPayload) error {
	msg := newHTMLMessage(chatID, renderReminder(payload))
	msg.ReplyMarkup = buildReminderKeyboard()

	sent, err := h.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}

	prev, ok := h.reminders.Swap(chatID, storage.ReminderMessage{
		MessageID: sent.MessageID,
		DueCount:  payload.DueCount,
		SentAt:    h.now(),
	})
	if !ok || prev.MessageID == 0 {
		return nil
	}

	if _, err := h.bot.Request(tgbotapi.NewDeleteMessage(chatID, prev.MessageID)); err != nil {
		h.logger.Warn("failed to delete previous reminder",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", prev.MessageID),
			zap.Error(err),
		)
	}
	return nil
}

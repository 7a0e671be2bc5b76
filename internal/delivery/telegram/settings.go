package telegram

import (
	"context"
)

// handleReminders toggles review reminders.
func (h *Handler) handleReminders(userID string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		enabled, err := h.userService.ToggleReminders(ctx, userID)
		if err != nil {
			return err
		}

		msg := newHTMLMessage(chatID, remindersText(enabled))
		msg.ReplyMarkup = buildSettingsKeyboard(enabled)
		h.send(msg)
		return nil
	}
}

func remindersText(enabled bool) string {
	if enabled {
		return msgRemindersOn
	}
	return msgRemindersOff
}

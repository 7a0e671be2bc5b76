package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

// buildPlanKeyboard builds keyboard for the study plan screen.
func buildPlanKeyboard(subjectID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", buildPlanCallback(subjectID)),
			tgbotapi.NewInlineKeyboardButtonData("🃏 Review due cards", buildReviewStartCallback("")),
		),
	)
}

// buildShowAnswerKeyboard builds keyboard under a card's front side.
func buildShowAnswerKeyboard(itemID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👀 Show answer", buildReviewShowCallback(itemID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏹ Stop", buildReviewStopCallback()),
		),
	)
}

// buildGradeKeyboard builds keyboard for grading a revealed card.
func buildGradeKeyboard(itemID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Again", buildReviewGradeCallback(itemID, entities.GradeAgain)),
			tgbotapi.NewInlineKeyboardButtonData("😓 Hard", buildReviewGradeCallback(itemID, entities.GradeHard)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🙂 Good", buildReviewGradeCallback(itemID, entities.GradeGood)),
			tgbotapi.NewInlineKeyboardButtonData("😎 Easy", buildReviewGradeCallback(itemID, entities.GradeEasy)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏹ Stop", buildReviewStopCallback()),
		),
	)
}

// buildReminderKeyboard builds keyboard attached to reminder messages.
func buildReminderKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🃏 Review now", buildReminderReviewCallback()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔕 Turn off reminders", buildReminderDisableCallback()),
		),
	)
}

// buildSettingsKeyboard builds the reminder settings keyboard.
func buildSettingsKeyboard(remindersEnabled bool) tgbotapi.InlineKeyboardMarkup {
	label := "🔔 Turn on reminders"
	if remindersEnabled {
		label = "🔕 Turn off reminders"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, buildSettingsRemindersCallback()),
		),
	)
}

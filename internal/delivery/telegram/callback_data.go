package telegram

import (
	"strings"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

// Callback action constants.
const (
	actionPlan     = "plan"
	actionReview   = "review"
	actionReminder = "reminder"
	actionSettings = "settings"
)

// Review sub-actions.
const (
	reviewShow  = "show"
	reviewGrade = "grade"
	reviewStop  = "stop"
	reviewStart = "start"
)

// Reminder sub-actions.
const (
	reminderReview  = "review"
	reminderDisable = "disable"
)

// Settings sub-actions.
const (
	settingsReminders = "reminders"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// param returns the i-th parameter or an empty string.
func (cd callbackData) param(i int) string {
	if i < 0 || i >= len(cd.Params) {
		return ""
	}
	return cd.Params[i]
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// buildPlanCallback builds callback data for refreshing a study plan.
func buildPlanCallback(subjectID string) string {
	return callbackData{Action: actionPlan, Params: []string{subjectID}}.encode()
}

// buildReviewStartCallback builds callback data for starting a review
// session, optionally limited to one topic.
func buildReviewStartCallback(topicID string) string {
	params := []string{reviewStart}
	if topicID != "" {
		params = append(params, topicID)
	}
	return callbackData{Action: actionReview, Params: params}.encode()
}

// buildReviewShowCallback builds callback data for revealing a card's answer.
func buildReviewShowCallback(itemID string) string {
	return callbackData{Action: actionReview, Params: []string{reviewShow, itemID}}.encode()
}

// buildReviewGradeCallback builds callback data for grading a card.
func buildReviewGradeCallback(itemID string, grade entities.Grade) string {
	return callbackData{Action: actionReview, Params: []string{reviewGrade, itemID, string(grade)}}.encode()
}

func buildReviewStopCallback() string {
	return callbackData{Action: actionReview, Params: []string{reviewStop}}.encode()
}

func buildReminderReviewCallback() string {
	return callbackData{Action: actionReminder, Params: []string{reminderReview}}.encode()
}

func buildReminderDisableCallback() string {
	return callbackData{Action: actionReminder, Params: []string{reminderDisable}}.encode()
}

func buildSettingsRemindersCallback() string {
	return callbackData{Action: actionSettings, Params: []string{settingsReminders}}.encode()
}

package entities

import "time"

// User is a learner reachable through a chat.
type User struct {
	ID               string
	ChatID           int64
	RemindersEnabled bool
	LastRemindedAt   *time.Time
	CreatedAt        time.Time
}

// NewUser creates a user with reminders enabled.
func NewUser(id string, chatID int64, now time.Time) *User {
	return &User{
		ID:               id,
		ChatID:           chatID,
		RemindersEnabled: true,
		CreatedAt:        now,
	}
}

// CanRemind reports whether enough time passed since the last reminder.
func (u *User) CanRemind(now time.Time, minGap time.Duration) bool {
	if !u.RemindersEnabled || u.ChatID == 0 {
		return false
	}
	if u.LastRemindedAt == nil {
		return true
	}
	return !now.Before(u.LastRemindedAt.Add(minGap))
}

// ReminderPayload is what a reminder message is built from.
type ReminderPayload struct {
	DueCount  int
	NextTopic string // topic of the most overdue item, may be empty
}

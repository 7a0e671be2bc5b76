package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/storage"
)

// Bot is the subset of *tgbotapi.BotAPI the handler uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type UserService interface {
	EnsureUser(ctx context.Context, userID string, chatID int64, now time.Time) (*entities.User, error)
	ToggleReminders(ctx context.Context, userID string) (bool, error)
	SetReminders(ctx context.Context, userID string, enabled bool) error
}

type SchedulerService interface {
	GetStudyPlan(ctx context.Context, userID, subjectID string) (*entities.StudyPlan, error)
	RecordReview(ctx context.Context, userID, itemID string, grade entities.Grade, now time.Time) (*entities.ReviewItem, error)
	DueReviews(ctx context.Context, userID, topicID string, now time.Time, limit int) ([]entities.ReviewItem, error)
	EnrollSubject(ctx context.Context, userID, subjectID string, now time.Time) (int, error)
	Flashcard(ctx context.Context, flashcardID string) (*entities.Flashcard, error)
	ReviewItem(ctx context.Context, userID, itemID string) (*entities.ReviewItem, error)
}

type ProgressService interface {
	SetTopicStatus(ctx context.Context, userID, topicID string, status entities.ProgressStatus, now time.Time) (*entities.ProgressRecord, error)
	LogTime(ctx context.Context, userID, topicID string, minutes int, now time.Time) (*entities.ProgressRecord, error)
	Summary(ctx context.Context, userID, subjectID string, now time.Time) (*entities.ProgressSummary, error)
}

type SessionStorage interface {
	Store(chatID int64, session *storage.ReviewSession)
	Get(chatID int64) (storage.ReviewSession, bool)
	Advance(chatID int64) (next string, reviewed int, ok bool)
	Delete(chatID int64)
}

type ReminderStorage interface {
	Swap(chatID int64, msg storage.ReminderMessage) (storage.ReminderMessage, bool)
	Delete(chatID int64)
}

package service

import (
	"context"
	"time"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

// Stores return entities.ErrNotFound for missing records and
// entities.ErrStoreUnavailable for transient failures, wrapped with %w.

// TopicRepository loads the topic graph of a subject.
type TopicRepository interface {
	LoadTopics(ctx context.Context, subjectID string) ([]entities.Topic, error)
	LoadDependencyEdges(ctx context.Context, subjectID string) ([]entities.DependencyEdge, error)
	GetTopic(ctx context.Context, topicID string) (*entities.Topic, error)
}

// ProgressRepository manages per-topic progress records.
type ProgressRepository interface {
	LoadProgress(ctx context.Context, userID, subjectID string) ([]entities.ProgressRecord, error)
	GetProgress(ctx context.Context, userID, topicID string) (*entities.ProgressRecord, error)
	UpsertProgress(ctx context.Context, record *entities.ProgressRecord) error
}

// ReviewItemRepository manages review state. SaveReviewItem succeeds only
// when item.Version matches the stored version and increments it; otherwise
// it returns entities.ErrVersionConflict.
type ReviewItemRepository interface {
	LoadReviewItem(ctx context.Context, userID, itemID string) (*entities.ReviewItem, error)
	SaveReviewItem(ctx context.Context, item *entities.ReviewItem, log *entities.ReviewLog) error
	CreateReviewItems(ctx context.Context, items []entities.ReviewItem) (int, error)
	ListReviewItems(ctx context.Context, userID string) ([]entities.ReviewItem, error)
	ListReviewLogs(ctx context.Context, userID, itemID string) ([]entities.ReviewLog, error)
}

// FlashcardRepository reads author-owned review content.
type FlashcardRepository interface {
	GetFlashcard(ctx context.Context, flashcardID string) (*entities.Flashcard, error)
	ListFlashcards(ctx context.Context, subjectID string) ([]entities.Flashcard, error)
}

// SubjectWriter stores an imported subject in one step.
type SubjectWriter interface {
	SaveSubject(ctx context.Context, subjectID string, topics []entities.Topic, cards []entities.Flashcard) error
}

// UserRepository manages chat users and their reminder state.
type UserRepository interface {
	SaveUser(ctx context.Context, user *entities.User) error
	GetUser(ctx context.Context, userID string) (*entities.User, error)
	ListReminderTargets(ctx context.Context) ([]entities.User, error)
	SetRemindersEnabled(ctx context.Context, userID string, enabled bool) error
	MarkReminded(ctx context.Context, userID string, at time.Time) error
}

// Store is everything a storage driver provides.
type Store interface {
	TopicRepository
	ProgressRepository
	ReviewItemRepository
	FlashcardRepository
	SubjectWriter
	UserRepository
}

// ReminderNotifier sends reminder notifications to users.
type ReminderNotifier interface {
	SendReminder(chatID int64, payload entities.ReminderPayload) error
}

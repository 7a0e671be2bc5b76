package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

// UserService registers chat users and manages their reminder settings.
type UserService struct {
	repository UserRepository
}

func NewUserService(repository UserRepository) *UserService {
	return &UserService{repository: repository}
}

// EnsureUser returns the user, creating it on first contact. A changed chat
// id is updated.
func (s *UserService) EnsureUser(ctx context.Context, userID string, chatID int64, now time.Time) (*entities.User, error) {
	user, err := s.repository.GetUser(ctx, userID)
	switch {
	case err == nil:
		if user.ChatID == chatID {
			return user, nil
		}
		user.ChatID = chatID
	case errors.Is(err, entities.ErrNotFound):
		user = entities.NewUser(userID, chatID, now)
	default:
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.repository.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// ToggleReminders flips reminders of the user and returns the new state.
func (s *UserService) ToggleReminders(ctx context.Context, userID string) (bool, error) {
	user, err := s.repository.GetUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}

	enabled := !user.RemindersEnabled
	if err := s.repository.SetRemindersEnabled(ctx, userID, enabled); err != nil {
		return false, fmt.Errorf("set reminders enabled: %w", err)
	}
	return enabled, nil
}

// SetReminders enables or disables reminders of the user.
func (s *UserService) SetReminders(ctx context.Context, userID string, enabled bool) error {
	if err := s.repository.SetRemindersEnabled(ctx, userID, enabled); err != nil {
		return fmt.Errorf("set reminders enabled: %w", err)
	}
	return nil
}

package storage

import (
	"sync"
	"time"
)

// ReminderMessage identifies the last reminder sent to a chat.
type ReminderMessage struct {
	MessageID int
	DueCount  int
	SentAt    time.Time
}

// ReminderStorage remembers the last reminder per chat so it can be
// replaced instead of piling up.
type ReminderStorage struct {
	mu       sync.RWMutex
	messages map[int64]ReminderMessage
}

func NewReminderStorage() *ReminderStorage {
	return &ReminderStorage{
		messages: make(map[int64]ReminderMessage),
	}
}

// Swap stores msg for a chat and returns the previous reminder, if any.
func (s *ReminderStorage) Swap(chatID int64, msg ReminderMessage) (ReminderMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.messages[chatID]
	s.messages[chatID] = msg
	return prev, ok
}

func (s *ReminderStorage) Get(chatID int64) (ReminderMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[chatID]
	return msg, ok
}

func (s *ReminderStorage) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, chatID)
}

package storage

import (
	"sync"
	"time"
)

// ReviewSession is the queue of review items a chat is working through.
type ReviewSession struct {
	ItemIDs   []string
	Position  int
	Reviewed  int
	TopicID   string // filter the session was started with, may be empty
	StartedAt time.Time
}

// Current returns the item under review.
func (s *ReviewSession) Current() (string, bool) {
	if s.Position >= len(s.ItemIDs) {
		return "", false
	}
	return s.ItemIDs[s.Position], true
}

// Advance moves to the next item and reports whether one is left.
func (s *ReviewSession) Advance() bool {
	s.Position++
	s.Reviewed++
	return s.Position < len(s.ItemIDs)
}

// SessionStorage provides in-memory storage for review sessions by chat ID.
type SessionStorage struct {
	mu       sync.RWMutex
	sessions map[int64]*ReviewSession
}

// NewSessionStorage creates a new SessionStorage.
func NewSessionStorage() *SessionStorage {
	return &SessionStorage{
		sessions: make(map[int64]*ReviewSession),
	}
}

// Store saves a session for a chat, replacing a previous one.
func (s *SessionStorage) Store(chatID int64, session *ReviewSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = session
}

// Get retrieves a copy of the session of a chat.
func (s *SessionStorage) Get(chatID int64) (ReviewSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[chatID]
	if !ok {
		return ReviewSession{}, false
	}
	return *session, true
}

// Advance moves the chat's session forward and returns the next item id.
// The session is removed once it is exhausted.
func (s *SessionStorage) Advance(chatID int64) (next string, reviewed int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[chatID]
	if !exists {
		return "", 0, false
	}
	if !session.Advance() {
		delete(s.sessions, chatID)
		return "", session.Reviewed, false
	}
	next, _ = session.Current()
	return next, session.Reviewed, true
}

// Delete removes the session of a chat.
func (s *SessionStorage) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

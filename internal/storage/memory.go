package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

type progressKey struct {
	userID  string
	topicID string
}

// MemoryStore keeps every record in process memory. It is used for tests and
// the "memory" database driver; data is lost on restart.
type MemoryStore struct {
	mu         sync.RWMutex
	topics     map[string]entities.Topic // by topic id
	order      []string                  // topic ids in insertion order
	edges      map[string][]entities.DependencyEdge
	progress   map[progressKey]entities.ProgressRecord
	items      map[string]entities.ReviewItem // by item id
	logs       map[string][]entities.ReviewLog
	flashcards map[string]entities.Flashcard
	cardOrder  []string
	users      map[string]entities.User
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		topics:     make(map[string]entities.Topic),
		edges:      make(map[string][]entities.DependencyEdge),
		progress:   make(map[progressKey]entities.ProgressRecord),
		items:      make(map[string]entities.ReviewItem),
		logs:       make(map[string][]entities.ReviewLog),
		flashcards: make(map[string]entities.Flashcard),
		users:      make(map[string]entities.User),
	}
}

// SaveSubject replaces the topics and flashcards of a subject.
func (s *MemoryStore) SaveSubject(_ context.Context, subjectID string, topics []entities.Topic, cards []entities.Flashcard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range topics {
		if existing, ok := s.topics[t.ID]; ok && existing.SubjectID != subjectID {
			return fmt.Errorf("%w: %s belongs to subject %s", entities.ErrDuplicateTopic, t.ID, existing.SubjectID)
		}
	}

	s.order = slices.DeleteFunc(s.order, func(id string) bool {
		if s.topics[id].SubjectID != subjectID {
			return false
		}
		delete(s.topics, id)
		return true
	})
	s.cardOrder = slices.DeleteFunc(s.cardOrder, func(id string) bool {
		if _, ok := s.topics[s.flashcards[id].TopicID]; ok {
			return false
		}
		delete(s.flashcards, id)
		return true
	})
	delete(s.edges, subjectID)

	for _, t := range topics {
		t.SubjectID = subjectID
		t.Dependencies = slices.Clone(t.Dependencies)
		s.topics[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	for _, c := range cards {
		if _, ok := s.flashcards[c.ID]; !ok {
			s.cardOrder = append(s.cardOrder, c.ID)
		}
		s.flashcards[c.ID] = c
	}
	return nil
}

// AddDependencyEdges stores edges kept apart from the topics.
func (s *MemoryStore) AddDependencyEdges(subjectID string, edges ...entities.DependencyEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[subjectID] = append(s.edges[subjectID], edges...)
}

func (s *MemoryStore) LoadTopics(_ context.Context, subjectID string) ([]entities.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.Topic
	for _, id := range s.order {
		t := s.topics[id]
		if t.SubjectID != subjectID {
			continue
		}
		t.Dependencies = slices.Clone(t.Dependencies)
		out = append(out, t)
	}
	return out, nil
}

func (s *MemoryStore) LoadDependencyEdges(_ context.Context, subjectID string) ([]entities.DependencyEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.edges[subjectID]), nil
}

func (s *MemoryStore) GetTopic(_ context.Context, topicID string) (*entities.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.topics[topicID]
	if !ok {
		return nil, fmt.Errorf("topic %s: %w", topicID, entities.ErrNotFound)
	}
	t.Dependencies = slices.Clone(t.Dependencies)
	return &t, nil
}

func (s *MemoryStore) LoadProgress(_ context.Context, userID, subjectID string) ([]entities.ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.ProgressRecord
	for key, r := range s.progress {
		if key.userID != userID || s.topics[key.topicID].SubjectID != subjectID {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b entities.ProgressRecord) int {
		return strings.Compare(a.TopicID, b.TopicID)
	})
	return out, nil
}

func (s *MemoryStore) GetProgress(_ context.Context, userID, topicID string) (*entities.ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.progress[progressKey{userID, topicID}]
	if !ok {
		return nil, fmt.Errorf("progress %s/%s: %w", userID, topicID, entities.ErrNotFound)
	}
	return &r, nil
}

// UpsertProgress inserts a record with Version 0 or updates one whose version
// matches the stored one, then increments record.Version.
func (s *MemoryStore) UpsertProgress(_ context.Context, record *entities.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := progressKey{record.UserID, record.TopicID}
	stored, ok := s.progress[key]
	if (!ok && record.Version != 0) || (ok && stored.Version != record.Version) {
		return fmt.Errorf("progress %s/%s at version %d, have %d: %w",
			record.UserID, record.TopicID, stored.Version, record.Version, entities.ErrVersionConflict)
	}

	record.Version++
	s.progress[key] = *record
	return nil
}

func (s *MemoryStore) LoadReviewItem(_ context.Context, userID, itemID string) (*entities.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok || item.UserID != userID {
		return nil, fmt.Errorf("review item %s: %w", itemID, entities.ErrNotFound)
	}
	return &item, nil
}

// SaveReviewItem stores item if its version matches, increments the version
// and appends log when given.
func (s *MemoryStore) SaveReviewItem(_ context.Context, item *entities.ReviewItem, log *entities.ReviewLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[item.ID]
	if !ok || stored.UserID != item.UserID {
		return fmt.Errorf("review item %s: %w", item.ID, entities.ErrNotFound)
	}
	if stored.Version != item.Version {
		return fmt.Errorf("review item %s at version %d, have %d: %w",
			item.ID, stored.Version, item.Version, entities.ErrVersionConflict)
	}

	item.Version++
	s.items[item.ID] = *item
	if log != nil {
		s.logs[item.ID] = append(s.logs[item.ID], *log)
	}
	return nil
}

// CreateReviewItems inserts items whose (user, flashcard) pair is new and
// returns how many were inserted.
func (s *MemoryStore) CreateReviewItems(_ context.Context, items []entities.ReviewItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type pair struct{ user, card string }
	known := make(map[pair]struct{}, len(s.items))
	for _, it := range s.items {
		known[pair{it.UserID, it.FlashcardID}] = struct{}{}
	}

	created := 0
	for _, it := range items {
		p := pair{it.UserID, it.FlashcardID}
		if _, ok := known[p]; ok {
			continue
		}
		if _, ok := s.items[it.ID]; ok {
			continue
		}
		known[p] = struct{}{}
		s.items[it.ID] = it
		created++
	}
	return created, nil
}

func (s *MemoryStore) ListReviewItems(_ context.Context, userID string) ([]entities.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.ReviewItem
	for _, it := range s.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b entities.ReviewItem) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) ListReviewLogs(_ context.Context, userID, itemID string) ([]entities.ReviewLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if it, ok := s.items[itemID]; !ok || it.UserID != userID {
		return nil, fmt.Errorf("review item %s: %w", itemID, entities.ErrNotFound)
	}
	return slices.Clone(s.logs[itemID]), nil
}

func (s *MemoryStore) GetFlashcard(_ context.Context, flashcardID string) (*entities.Flashcard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.flashcards[flashcardID]
	if !ok {
		return nil, fmt.Errorf("flashcard %s: %w", flashcardID, entities.ErrNotFound)
	}
	return &c, nil
}

func (s *MemoryStore) ListFlashcards(_ context.Context, subjectID string) ([]entities.Flashcard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.Flashcard
	for _, id := range s.cardOrder {
		c := s.flashcards[id]
		if s.topics[c.TopicID].SubjectID == subjectID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveUser(_ context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, userID string) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, entities.ErrNotFound)
	}
	return &u, nil
}

func (s *MemoryStore) ListReminderTargets(_ context.Context) ([]entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.User
	for _, u := range s.users {
		if u.RemindersEnabled && u.ChatID != 0 {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b entities.User) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) SetRemindersEnabled(_ context.Context, userID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, entities.ErrNotFound)
	}
	u.RemindersEnabled = enabled
	s.users[userID] = u
	return nil
}

func (s *MemoryStore) MarkReminded(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, entities.ErrNotFound)
	}
	u.LastRemindedAt = &at
	s.users[userID] = u
	return nil
}

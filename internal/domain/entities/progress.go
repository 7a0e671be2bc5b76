package entities

import (
	"fmt"
	"time"
)

// ProgressStatus is the completion state of a topic for a user.
type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "not_started"
	StatusInProgress ProgressStatus = "in_progress"
	StatusCompleted  ProgressStatus = "completed"
)

// ParseProgressStatus validates a status string.
func ParseProgressStatus(s string) (ProgressStatus, error) {
	st := ProgressStatus(s)
	switch st {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// ProgressRecord stores the progress of one user on one topic.
type ProgressRecord struct {
	UserID           string
	TopicID          string
	Status           ProgressStatus
	CompletedAt      *time.Time // set iff Status is completed
	TimeSpentMinutes int
	UpdatedAt        time.Time
	Version          int // 0 until first saved
}

// NewProgressRecord creates a not-started record for a user and topic.
func NewProgressRecord(userID, topicID string, now time.Time) *ProgressRecord {
	return &ProgressRecord{
		UserID:    userID,
		TopicID:   topicID,
		Status:    StatusNotStarted,
		UpdatedAt: now,
	}
}

// Transition moves the record to status, keeping CompletedAt consistent.
func (p *ProgressRecord) Transition(status ProgressStatus, now time.Time) error {
	if _, err := ParseProgressStatus(string(status)); err != nil {
		return err
	}

	if status == StatusCompleted {
		if p.Status != StatusCompleted || p.CompletedAt == nil {
			completed := now
			p.CompletedAt = &completed
		}
	} else {
		p.CompletedAt = nil
	}

	p.Status = status
	p.UpdatedAt = now
	return nil
}

// AddTime adds study minutes; negative values are ignored.
func (p *ProgressRecord) AddTime(minutes int, now time.Time) {
	if minutes <= 0 {
		return
	}
	p.TimeSpentMinutes += minutes
	p.UpdatedAt = now
}

// IsCompleted reports whether the topic is completed.
func (p *ProgressRecord) IsCompleted() bool {
	return p != nil && p.Status == StatusCompleted
}

// ProgressByTopic indexes records by topic id.
func ProgressByTopic(records []ProgressRecord) map[string]ProgressRecord {
	out := make(map[string]ProgressRecord, len(records))
	for _, r := range records {
		out[r.TopicID] = r
	}
	return out
}

// Package srs implements the SuperMemo-2 review schedule.
//
// Every function is a pure function of its arguments, so a review history
// can be replayed to rebuild an item's state.
package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

const (
	DefaultMinEasiness     = 1.3
	DefaultInitialEasiness = 2.5

	// passQuality is the lowest quality that counts as a successful recall.
	passQuality = 3

	day = 24 * time.Hour
)

// Params tune the schedule.
type Params struct {
	MinEasiness     float64
	InitialEasiness float64
	MaxIntervalDays float64 // 0 means unbounded
}

// DefaultParams returns the standard SM-2 constants.
func DefaultParams() Params {
	return Params{
		MinEasiness:     DefaultMinEasiness,
		InitialEasiness: DefaultInitialEasiness,
	}
}

// Scheduler applies review transitions.
type Scheduler struct {
	params Params
}

// NewScheduler creates a scheduler. Zero fields of p take their defaults.
func NewScheduler(p Params) *Scheduler {
	if p.MinEasiness <= 0 {
		p.MinEasiness = DefaultMinEasiness
	}
	if p.InitialEasiness <= 0 {
		p.InitialEasiness = DefaultInitialEasiness
	}
	if p.InitialEasiness < p.MinEasiness {
		p.InitialEasiness = p.MinEasiness
	}
	if p.MaxIntervalDays < 0 {
		p.MaxIntervalDays = 0
	}
	return &Scheduler{params: p}
}

// Params returns the effective parameters.
func (s *Scheduler) Params() Params { return s.params }

// NewItem creates the review state of a flashcard for a user, due at now.
func (s *Scheduler) NewItem(userID, flashcardID, topicID string, now time.Time) entities.ReviewItem {
	return entities.ReviewItem{
		ID:             uuid.NewString(),
		UserID:         userID,
		FlashcardID:    flashcardID,
		TopicID:        topicID,
		EasinessFactor: s.params.InitialEasiness,
		DueDate:        now,
		CreatedAt:      now,
	}
}

// Review returns the state of item after it was graded at now.
// An unknown grade is rejected and item is returned unchanged.
func (s *Scheduler) Review(item entities.ReviewItem, grade entities.Grade, now time.Time) (entities.ReviewItem, error) {
	q, err := grade.Quality()
	if err != nil {
		return item, err
	}

	item.EasinessFactor = s.nextEasiness(item.EasinessFactor, q)

	if q < passQuality {
		item.RepetitionCount = 0
		item.IntervalDays = 1
	} else {
		item.RepetitionCount++
		item.IntervalDays = s.nextInterval(item.RepetitionCount, item.IntervalDays, item.EasinessFactor)
	}

	reviewed := now
	g := grade
	item.LastReviewedAt = &reviewed
	item.LastGrade = &g
	item.DueDate = now.Add(days(item.IntervalDays))

	return item, nil
}

// nextEasiness is EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02)), floored at the minimum.
func (s *Scheduler) nextEasiness(ef float64, q int) float64 {
	d := float64(5 - q)
	ef += 0.1 - d*(0.08+d*0.02)
	return math.Max(ef, s.params.MinEasiness)
}

func (s *Scheduler) nextInterval(repetitions int, interval, ef float64) float64 {
	var next float64
	switch repetitions {
	case 1:
		next = 1
	case 2:
		next = 6
	default:
		next = math.Round(interval * ef)
		if next < 1 {
			next = 1
		}
	}

	if s.params.MaxIntervalDays > 0 && next > s.params.MaxIntervalDays {
		next = s.params.MaxIntervalDays
	}
	return next
}

// Log builds the history entry of a review that produced item.
func Log(item entities.ReviewItem) (entities.ReviewLog, error) {
	if item.LastGrade == nil || item.LastReviewedAt == nil {
		return entities.ReviewLog{}, fmt.Errorf("item %s has not been reviewed", item.ID)
	}
	return entities.ReviewLog{
		ItemID:         item.ID,
		UserID:         item.UserID,
		Grade:          *item.LastGrade,
		ReviewedAt:     *item.LastReviewedAt,
		IntervalDays:   item.IntervalDays,
		EasinessFactor: item.EasinessFactor,
	}, nil
}

// Replay applies logs in order to a fresh copy of item's initial state.
func (s *Scheduler) Replay(initial entities.ReviewItem, logs []entities.ReviewLog) (entities.ReviewItem, error) {
	item := initial
	for i, l := range logs {
		next, err := s.Review(item, l.Grade, l.ReviewedAt)
		if err != nil {
			return initial, fmt.Errorf("replay log %d: %w", i, err)
		}
		item = next
	}
	return item, nil
}

// IsMastered reports whether an item is considered learned: five successful
// reviews in a row, last grade good or easy and an interval of a month.
func IsMastered(item entities.ReviewItem) bool {
	if item.LastGrade == nil {
		return false
	}
	q, err := item.LastGrade.Quality()
	if err != nil {
		return false
	}
	return item.RepetitionCount >= 5 && q >= 4 && item.IntervalDays >= 30
}

func days(n float64) time.Duration {
	return time.Duration(n * float64(day))
}

package entities

import (
	"fmt"
	"strings"
	"time"
)

// Grade is the user's self-rated recall quality.
type Grade string

const (
	GradeAgain Grade = "again" // failed to recall
	GradeHard  Grade = "hard"  // recalled with significant effort
	GradeGood  Grade = "good"  // recalled after some hesitation
	GradeEasy  Grade = "easy"  // recalled effortlessly
)

// ParseGrade parses a grade name. Unknown values are rejected, never defaulted.
func ParseGrade(s string) (Grade, error) {
	g := Grade(strings.ToLower(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	return g, nil
}

// IsValid reports whether g is one of again, hard, good or easy.
func (g Grade) IsValid() bool {
	switch g {
	case GradeAgain, GradeHard, GradeGood, GradeEasy:
		return true
	}
	return false
}

// Quality maps a grade to the SM-2 quality score: again=0, hard=3, good=4, easy=5.
func (g Grade) Quality() (int, error) {
	switch g {
	case GradeAgain:
		return 0, nil
	case GradeHard:
		return 3, nil
	case GradeGood:
		return 4, nil
	case GradeEasy:
		return 5, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, string(g))
}

// ReviewItem is the spaced-repetition state of one flashcard for one user.
type ReviewItem struct {
	ID              string
	UserID          string
	FlashcardID     string
	TopicID         string // optional association, empty when none
	EasinessFactor  float64
	RepetitionCount int     // consecutive successful reviews
	IntervalDays    float64 // current interval
	DueDate         time.Time
	LastReviewedAt  *time.Time
	LastGrade       *Grade
	Version         int // incremented on every successful save
	CreatedAt       time.Time
}

// ReviewLog is one graded review, appended when the item is saved.
type ReviewLog struct {
	ItemID         string
	UserID         string
	Grade          Grade
	ReviewedAt     time.Time
	IntervalDays   float64 // interval after the review
	EasinessFactor float64 // easiness after the review
}

// Flashcard is author-owned review content attached to a topic.
type Flashcard struct {
	ID      string
	TopicID string
	Front   string
	Back    string
}

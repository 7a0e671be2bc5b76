package srs

import (
	"slices"
	"strings"
	"time"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

// SelectDue returns the items due at now, optionally restricted to one topic
// (empty topicID means all topics). The most overdue come first; among items
// due at the same time the lowest easiness comes first.
func SelectDue(items []entities.ReviewItem, now time.Time, topicID string) []entities.ReviewItem {
	due := make([]entities.ReviewItem, 0, len(items))
	for _, it := range items {
		if it.DueDate.After(now) {
			continue
		}
		if topicID != "" && it.TopicID != topicID {
			continue
		}
		due = append(due, it)
	}

	slices.SortStableFunc(due, func(a, b entities.ReviewItem) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		switch {
		case a.EasinessFactor < b.EasinessFactor:
			return -1
		case a.EasinessFactor > b.EasinessFactor:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})

	return due
}

// Forecast counts items falling due on each of the next n days starting at
// from. Overdue items are counted on the first day.
func Forecast(items []entities.ReviewItem, from time.Time, n int) []int {
	if n <= 0 {
		return nil
	}
	counts := make([]int, n)
	for _, it := range items {
		d := int(it.DueDate.Sub(from) / day)
		if it.DueDate.Before(from) {
			d = 0
		}
		if d < n {
			counts[d]++
		}
	}
	return counts
}

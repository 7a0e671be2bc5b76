package srs

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

func dueItem(id, topic string, due time.Time, ef float64) entities.ReviewItem {
	return entities.ReviewItem{ID: id, UserID: "u1", TopicID: topic, DueDate: due, EasinessFactor: ef}
}

func itemIDs(items []entities.ReviewItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestSelectDue(t *testing.T) {
	items := []entities.ReviewItem{
		dueItem("future", "cells", t0.Add(time.Hour), 1.5),
		dueItem("now-easy", "cells", t0, 2.8),
		dueItem("now-hard", "genes", t0, 1.4),
		dueItem("old", "genes", t0.Add(-48*time.Hour), 2.5),
		dueItem("yesterday", "cells", t0.Add(-24*time.Hour), 2.0),
	}

	tests := []struct {
		name  string
		topic string
		want  []string
	}{
		{"all topics", "", []string{"old", "yesterday", "now-hard", "now-easy"}},
		{"cells only", "cells", []string{"yesterday", "now-easy"}},
		{"unknown topic", "physics", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := itemIDs(SelectDue(items, t0, tt.topic))
			if !slices.Equal(got, tt.want) {
				t.Errorf("SelectDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectDueProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	for run := 0; run < 200; run++ {
		items := make([]entities.ReviewItem, rng.Intn(30))
		for i := range items {
			offset := time.Duration(rng.Intn(10)-5) * time.Hour
			items[i] = dueItem(fmt.Sprintf("i%02d", i), "t", t0.Add(offset), 1.3+float64(rng.Intn(5))/5)
		}

		due := SelectDue(items, t0, "")
		for i, it := range due {
			if it.DueDate.After(t0) {
				t.Fatalf("run %d: item %s due %v after now", run, it.ID, it.DueDate)
			}
			if i == 0 {
				continue
			}
			prev := due[i-1]
			if prev.DueDate.After(it.DueDate) ||
				(prev.DueDate.Equal(it.DueDate) && prev.EasinessFactor > it.EasinessFactor) {
				t.Fatalf("run %d: %s ordered before %s", run, prev.ID, it.ID)
			}
		}
	}
}

func TestForecast(t *testing.T) {
	items := []entities.ReviewItem{
		dueItem("overdue", "", t0.Add(-72*time.Hour), 2.5),
		dueItem("today", "", t0.Add(3*time.Hour), 2.5),
		dueItem("tomorrow", "", t0.Add(25*time.Hour), 2.5),
		dueItem("far", "", t0.Add(30*24*time.Hour), 2.5),
	}

	got := Forecast(items, t0, 3)
	if want := []int{2, 1, 0}; !slices.Equal(got, want) {
		t.Errorf("Forecast = %v, want %v", got, want)
	}
	if Forecast(items, t0, 0) != nil {
		t.Error("Forecast with zero days is not nil")
	}
}

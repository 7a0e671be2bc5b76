package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

func newProgress(store Store) *ProgressService {
	return NewProgressService(store, store, store,
		RetryPolicy{MaxTries: 50, InitialInterval: time.Millisecond}, nil)
}

func TestSetTopicStatus(t *testing.T) {
	ctx := context.Background()
	store := seed(t)
	svc := newProgress(store)

	if _, err := svc.SetTopicStatus(ctx, "u1", "B", entities.StatusInProgress, now); !errors.Is(err, entities.ErrTopicLocked) {
		t.Fatalf("start locked B: err = %v, want ErrTopicLocked", err)
	}
	if _, err := svc.SetTopicStatus(ctx, "u1", "B", entities.StatusNotStarted, now); err != nil {
		t.Fatalf("reset locked B: %v", err)
	}

	rec, err := svc.SetTopicStatus(ctx, "u1", "A", entities.StatusCompleted, now)
	if err != nil {
		t.Fatalf("complete A: %v", err)
	}
	if rec.CompletedAt == nil || !rec.CompletedAt.Equal(now) {
		t.Errorf("completedAt = %v, want %v", rec.CompletedAt, now)
	}

	if _, err := svc.SetTopicStatus(ctx, "u1", "B", entities.StatusInProgress, now); err != nil {
		t.Fatalf("start B after A: %v", err)
	}

	if _, err := svc.SetTopicStatus(ctx, "u1", "A", entities.ProgressStatus("paused"), now); !errors.Is(err, entities.ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
	if _, err := svc.SetTopicStatus(ctx, "u1", "Z", entities.StatusCompleted, now); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLogTime(t *testing.T) {
	ctx := context.Background()
	store := seed(t)
	svc := newProgress(store)

	if _, err := svc.LogTime(ctx, "u1", "A", 30, now); err != nil {
		t.Fatalf("LogTime: %v", err)
	}
	rec, err := svc.LogTime(ctx, "u1", "A", 15, now)
	if err != nil {
		t.Fatalf("LogTime: %v", err)
	}
	if rec.TimeSpentMinutes != 45 {
		t.Errorf("minutes = %d, want 45", rec.TimeSpentMinutes)
	}
	if rec.Status != entities.StatusNotStarted {
		t.Errorf("status = %s, want not_started", rec.Status)
	}
	if _, err := svc.LogTime(ctx, "u1", "A", 0, now); err == nil {
		t.Error("LogTime(0) succeeded, want error")
	}
}

func TestLogTimeConcurrent(t *testing.T) {
	ctx := context.Background()
	store := seed(t)
	svc := newProgress(store)

	const writers = 6
	var wg sync.WaitGroup
	errs := make(chan error, writers+1)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.LogTime(ctx, "u1", "A", 10, now)
			errs <- err
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.SetTopicStatus(ctx, "u1", "A", entities.StatusInProgress, now)
		errs <- err
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	got, err := store.GetProgress(ctx, "u1", "A")
	if err != nil {
		t.Fatal(err)
	}
	if got.TimeSpentMinutes != writers*10 {
		t.Errorf("minutes = %d, want %d", got.TimeSpentMinutes, writers*10)
	}
	if got.Status != entities.StatusInProgress {
		t.Errorf("status = %s, want in_progress", got.Status)
	}
	if got.Version != writers+1 {
		t.Errorf("version = %d, want %d", got.Version, writers+1)
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	store := seed(t)
	progress := newProgress(store)
	scheduler := newScheduler(store)

	items := enrolled(t, store, scheduler)
	if _, err := scheduler.RecordReview(ctx, "u1", items[0].ID, entities.GradeEasy, now); err != nil {
		t.Fatal(err)
	}
	if _, err := progress.SetTopicStatus(ctx, "u1", "A", entities.StatusCompleted, now); err != nil {
		t.Fatal(err)
	}
	if _, err := progress.LogTime(ctx, "u1", "A", 20, now); err != nil {
		t.Fatal(err)
	}

	sum, err := progress.Summary(ctx, "u1", "bio", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if sum.TotalTopics != 2 || sum.Completed != 1 || sum.NotStarted != 1 || sum.Locked != 0 {
		t.Errorf("counts = %+v", sum)
	}
	if want := 50.0 / 130 * 100; math.Abs(sum.WeightedCompleted-want) > 1e-9 {
		t.Errorf("weighted = %v, want %v", sum.WeightedCompleted, want)
	}
	if sum.TimeSpentMinutes != 20 {
		t.Errorf("minutes = %d, want 20", sum.TimeSpentMinutes)
	}
	if sum.TotalReviews != 2 || sum.DueReviews != 1 {
		t.Errorf("reviews total=%d due=%d, want 2/1", sum.TotalReviews, sum.DueReviews)
	}
	// The graded card is due in 23h, inside the first forecast day.
	if len(sum.Forecast) != forecastDays || sum.Forecast[0] != 2 {
		t.Errorf("forecast = %v, want 2 on day 0", sum.Forecast)
	}
}

func TestSummaryCountsLocked(t *testing.T) {
	store := seed(t)
	sum, err := newProgress(store).Summary(context.Background(), "u1", "bio", now)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Locked != 1 || sum.NotStarted != 2 || sum.WeightedCompleted != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/study-planner-bot/internal/config"
	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

func testConfig() *config.Config {
	return &config.Config{
		Scheduler: config.Scheduler{
			MinEasiness:          1.3,
			InitialEasiness:      2.5,
			RetryAttempts:        3,
			RetryInitialInterval: time.Millisecond,
		},
		Ranking: config.Ranking{DepthMultipliers: config.DepthMultipliers{Master: 1, Understand: 0.7, Familiar: 0.4}},
		Reminders: config.Reminders{
			Schedule:      "0 * * * *",
			MinGap:        time.Hour,
			RatePerSecond: 10,
			MaxConcurrent: 2,
		},
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		db   config.DB
	}{
		{"memory", config.DB{Driver: config.DriverMemory}},
		{"sqlite", config.DB{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "study.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeStore, err := OpenStore(ctx, tt.db, zap.NewNop())
			if err != nil {
				t.Fatalf("OpenStore: %v", err)
			}
			defer closeStore()

			topics := []entities.Topic{
				{ID: "a", Title: "A", ExamWeight: 40, RequiredDepth: entities.DepthMaster, PriorityHint: entities.HintHigh},
			}
			if err := store.SaveSubject(ctx, "s", topics, nil); err != nil {
				t.Fatalf("SaveSubject: %v", err)
			}

			svc := NewServices(testConfig(), store, zap.NewNop())
			plan, err := svc.Scheduler.GetStudyPlan(ctx, "u1", "s")
			if err != nil {
				t.Fatalf("GetStudyPlan: %v", err)
			}
			if next, ok := plan.Next(); !ok || next.ID != "a" || next.Score != 40 {
				t.Errorf("next = %+v, %v", next, ok)
			}
		})
	}
}

func TestOpenStoreRejects(t *testing.T) {
	ctx := context.Background()

	if _, _, err := OpenStore(ctx, config.DB{Driver: "mongo"}, zap.NewNop()); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
	if _, _, err := OpenStore(ctx, config.DB{Driver: config.DriverPostgres}, zap.NewNop()); !errors.Is(err, config.ErrMissingEnvironmentVariables) {
		t.Errorf("err = %v, want ErrMissingEnvironmentVariables", err)
	}
}

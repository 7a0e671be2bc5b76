package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/service"
)

// Verify Store implements the service contracts at compile time.
var _ service.Store = (*Store)(nil)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedSubject(t *testing.T, st *Store) {
	t.Helper()
	topics := []entities.Topic{
		{ID: "a", Title: "Cells", ExamWeight: 50, RequiredDepth: entities.DepthMaster, PriorityHint: entities.HintHigh},
		{ID: "b", Title: "Genetics", ExamWeight: 80, RequiredDepth: entities.DepthUnderstand,
			PriorityHint: entities.HintMedium, Dependencies: []string{"a"}},
	}
	cards := []entities.Flashcard{
		{ID: "c1", TopicID: "a", Front: "What is a cell?", Back: "The unit of life"},
		{ID: "c2", TopicID: "b", Front: "What is DNA?", Back: "Genetic material"},
	}
	if err := st.SaveSubject(context.Background(), "bio", topics, cards); err != nil {
		t.Fatalf("SaveSubject: %v", err)
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := t.TempDir() + "/nested/study.db"
	st, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open(%s): %v", path, err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSubjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	seedSubject(t, st)

	topics, err := st.LoadTopics(ctx, "bio")
	if err != nil {
		t.Fatalf("LoadTopics: %v", err)
	}
	if len(topics) != 2 || topics[0].ID != "a" || topics[1].RequiredDepth != entities.DepthUnderstand {
		t.Fatalf("topics = %+v", topics)
	}

	edges, err := st.LoadDependencyEdges(ctx, "bio")
	if err != nil {
		t.Fatalf("LoadDependencyEdges: %v", err)
	}
	if len(edges) != 1 || edges[0] != (entities.DependencyEdge{TopicID: "b", DependsOn: "a"}) {
		t.Errorf("edges = %+v", edges)
	}

	cards, err := st.ListFlashcards(ctx, "bio")
	if err != nil || len(cards) != 2 {
		t.Fatalf("ListFlashcards = %+v, %v", cards, err)
	}

	// Re-import without b drops the topic, its edge and its card.
	if err := st.SaveSubject(ctx, "bio", topics[:1], cards[:1]); err != nil {
		t.Fatalf("SaveSubject: %v", err)
	}
	if _, err := st.GetTopic(ctx, "b"); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("GetTopic(b) err = %v, want ErrNotFound", err)
	}
	if _, err := st.GetFlashcard(ctx, "c2"); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("GetFlashcard(c2) err = %v, want ErrNotFound", err)
	}
	if edges, _ := st.LoadDependencyEdges(ctx, "bio"); len(edges) != 0 {
		t.Errorf("edges after re-import = %+v", edges)
	}

	err = st.SaveSubject(ctx, "chem", []entities.Topic{{ID: "a", Title: "x", RequiredDepth: entities.DepthFamiliar}}, nil)
	if !errors.Is(err, entities.ErrDuplicateTopic) {
		t.Errorf("cross-subject id err = %v, want ErrDuplicateTopic", err)
	}
}

func TestProgress(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	seedSubject(t, st)

	if _, err := st.GetProgress(ctx, "u1", "a"); !errors.Is(err, entities.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	rec := entities.NewProgressRecord("u1", "a", now)
	if err := rec.Transition(entities.StatusCompleted, now); err != nil {
		t.Fatal(err)
	}
	rec.AddTime(25, now)
	if err := st.UpsertProgress(ctx, rec); err != nil {
		t.Fatalf("UpsertProgress: %v", err)
	}

	got, err := st.LoadProgress(ctx, "u1", "bio")
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("records = %+v", got)
	}
	if got[0].Status != entities.StatusCompleted || got[0].TimeSpentMinutes != 25 {
		t.Errorf("record = %+v", got[0])
	}
	if got[0].CompletedAt == nil || !got[0].CompletedAt.Equal(now) {
		t.Errorf("completedAt = %v, want %v", got[0].CompletedAt, now)
	}

	if other, _ := st.LoadProgress(ctx, "u1", "chem"); len(other) != 0 {
		t.Errorf("chem progress = %+v", other)
	}
}

func TestProgressVersioning(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	seedSubject(t, st)

	rec := entities.NewProgressRecord("u1", "a", now)
	if err := st.UpsertProgress(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if rec.Version != 1 {
		t.Errorf("version = %d, want 1", rec.Version)
	}
	if err := st.UpsertProgress(ctx, entities.NewProgressRecord("u1", "a", now)); !errors.Is(err, entities.ErrVersionConflict) {
		t.Fatalf("second insert err = %v, want ErrVersionConflict", err)
	}

	stale := *rec
	rec.AddTime(30, now)
	if err := st.UpsertProgress(ctx, rec); err != nil {
		t.Fatalf("update: %v", err)
	}
	stale.AddTime(10, now)
	if err := st.UpsertProgress(ctx, &stale); !errors.Is(err, entities.ErrVersionConflict) {
		t.Fatalf("stale update err = %v, want ErrVersionConflict", err)
	}

	got, err := st.GetProgress(ctx, "u1", "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.TimeSpentMinutes != 30 || got.Version != 2 {
		t.Errorf("record = %+v, want 30 minutes at version 2", got)
	}
}

func TestReviewItemVersioning(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	seedSubject(t, st)

	item := entities.ReviewItem{
		ID: "i1", UserID: "u1", FlashcardID: "c1", TopicID: "a",
		EasinessFactor: 2.5, DueDate: now, CreatedAt: now,
	}
	n, err := st.CreateReviewItems(ctx, []entities.ReviewItem{item, {ID: "i2", UserID: "u1", FlashcardID: "c1", DueDate: now, CreatedAt: now}})
	if err != nil {
		t.Fatalf("CreateReviewItems: %v", err)
	}
	if n != 1 {
		t.Errorf("created = %d, want 1 (same flashcard twice)", n)
	}

	loaded, err := st.LoadReviewItem(ctx, "u1", "i1")
	if err != nil {
		t.Fatalf("LoadReviewItem: %v", err)
	}
	stale := *loaded

	reviewed := now.Add(time.Hour)
	grade := entities.GradeGood
	loaded.RepetitionCount = 1
	loaded.IntervalDays = 1
	loaded.DueDate = reviewed.Add(24 * time.Hour)
	loaded.LastReviewedAt = &reviewed
	loaded.LastGrade = &grade

	log := &entities.ReviewLog{ItemID: "i1", UserID: "u1", Grade: grade, ReviewedAt: reviewed, IntervalDays: 1, EasinessFactor: 2.5}
	if err := st.SaveReviewItem(ctx, loaded, log); err != nil {
		t.Fatalf("SaveReviewItem: %v", err)
	}
	if loaded.Version != 1 {
		t.Errorf("version = %d, want 1", loaded.Version)
	}

	if err := st.SaveReviewItem(ctx, &stale, log); !errors.Is(err, entities.ErrVersionConflict) {
		t.Fatalf("stale save err = %v, want ErrVersionConflict", err)
	}

	got, err := st.LoadReviewItem(ctx, "u1", "i1")
	if err != nil {
		t.Fatal(err)
	}
	if got.RepetitionCount != 1 || got.LastGrade == nil || *got.LastGrade != entities.GradeGood {
		t.Errorf("item = %+v", got)
	}
	if got.LastReviewedAt == nil || !got.LastReviewedAt.Equal(reviewed) {
		t.Errorf("last reviewed = %v, want %v", got.LastReviewedAt, reviewed)
	}
	if got.TopicID != "a" {
		t.Errorf("topic = %q", got.TopicID)
	}

	logs, err := st.ListReviewLogs(ctx, "u1", "i1")
	if err != nil || len(logs) != 1 {
		t.Fatalf("logs = %+v, %v", logs, err)
	}

	missing := entities.ReviewItem{ID: "nope", UserID: "u1"}
	if err := st.SaveReviewItem(ctx, &missing, nil); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("missing save err = %v, want ErrNotFound", err)
	}
	if _, err := st.LoadReviewItem(ctx, "u2", "i1"); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("foreign load err = %v, want ErrNotFound", err)
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	for _, u := range []*entities.User{
		entities.NewUser("u1", 11, now),
		entities.NewUser("u2", 0, now),
		entities.NewUser("u3", 33, now),
	} {
		if err := st.SaveUser(ctx, u); err != nil {
			t.Fatalf("SaveUser: %v", err)
		}
	}
	if err := st.SetRemindersEnabled(ctx, "u3", false); err != nil {
		t.Fatal(err)
	}
	if err := st.MarkReminded(ctx, "u1", now); err != nil {
		t.Fatal(err)
	}

	targets, err := st.ListReminderTargets(ctx)
	if err != nil {
		t.Fatalf("ListReminderTargets: %v", err)
	}
	if len(targets) != 1 || targets[0].ID != "u1" {
		t.Fatalf("targets = %+v", targets)
	}
	if targets[0].LastRemindedAt == nil || !targets[0].LastRemindedAt.Equal(now) {
		t.Errorf("last reminded = %v", targets[0].LastRemindedAt)
	}

	if _, err := st.GetUser(ctx, "nobody"); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := st.MarkReminded(ctx, "nobody", now); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

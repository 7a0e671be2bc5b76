package graph

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

func topic(id string, deps ...string) entities.Topic {
	return entities.Topic{
		ID:            id,
		Title:         "Topic " + id,
		SubjectID:     "math",
		ExamWeight:    50,
		RequiredDepth: entities.DepthMaster,
		Dependencies:  deps,
		PriorityHint:  entities.HintMedium,
	}
}

func mustBuild(t *testing.T, topics ...entities.Topic) *Graph {
	t.Helper()
	g, err := Build(topics)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func completed(ids ...string) map[string]entities.ProgressRecord {
	out := make(map[string]entities.ProgressRecord, len(ids))
	for _, id := range ids {
		out[id] = entities.ProgressRecord{TopicID: id, Status: entities.StatusCompleted}
	}
	return out
}

func TestBuildIndexesEdges(t *testing.T) {
	g := mustBuild(t, topic("a"), topic("b", "a"), topic("c", "a", "b"))

	if got := g.Prerequisites("c"); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Prerequisites(c) = %v, want [a b]", got)
	}
	if got := g.Dependents("a"); !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("Dependents(a) = %v, want [b c]", got)
	}
	if g.Len() != 3 {
		t.Errorf("Len() = %d, want 3", g.Len())
	}
}

func TestBuildEmpty(t *testing.T) {
	g := mustBuild(t)
	if g.Len() != 0 || len(g.Order()) != 0 {
		t.Errorf("empty graph has %d topics, order %v", g.Len(), g.Order())
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		topics []entities.Topic
		want   error
	}{
		{"self dependency", []entities.Topic{topic("a", "a")}, entities.ErrCycleDetected},
		{"two cycle", []entities.Topic{topic("a", "b"), topic("b", "a")}, entities.ErrCycleDetected},
		{"long cycle", []entities.Topic{topic("a", "c"), topic("b", "a"), topic("c", "b"), topic("d")}, entities.ErrCycleDetected},
		{"dangling", []entities.Topic{topic("a", "ghost")}, entities.ErrDanglingReference},
		{"duplicate", []entities.Topic{topic("a"), topic("a")}, entities.ErrDuplicateTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(tt.topics)
			if g != nil {
				t.Errorf("Build returned a graph along with error")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Build error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCycleErrorPath(t *testing.T) {
	_, err := Build([]entities.Topic{topic("a", "b"), topic("b", "c"), topic("c", "a")})

	var cycle *CycleDetectedError
	if !errors.As(err, &cycle) {
		t.Fatalf("error %v is not *CycleDetectedError", err)
	}
	if len(cycle.Path) != 4 || cycle.Path[0] != cycle.Path[len(cycle.Path)-1] {
		t.Errorf("cycle path = %v, want closed path of 4 ids", cycle.Path)
	}
}

func TestDanglingErrorFields(t *testing.T) {
	_, err := Build([]entities.Topic{topic("a"), topic("b", "a", "zzz")})

	var dangling *DanglingReferenceError
	if !errors.As(err, &dangling) {
		t.Fatalf("error %v is not *DanglingReferenceError", err)
	}
	if dangling.TopicID != "b" || dangling.Missing != "zzz" {
		t.Errorf("got %+v, want topic b missing zzz", dangling)
	}
}

// randomDAG only adds edges from higher to lower index, so it is acyclic.
func randomDAG(rng *rand.Rand, n int) []entities.Topic {
	topics := make([]entities.Topic, n)
	for i := range topics {
		var deps []string
		for j := 0; j < i; j++ {
			if rng.Intn(4) == 0 {
				deps = append(deps, fmt.Sprintf("t%02d", j))
			}
		}
		topics[i] = topic(fmt.Sprintf("t%02d", i), deps...)
	}
	return topics
}

func TestBuildAlwaysRejectsCycles(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		topics := randomDAG(rng, 2+rng.Intn(15))

		// Close a cycle: the first topic depends on the last, and the last
		// reaches the first through an explicit edge.
		last := len(topics) - 1
		topics[last].Dependencies = append(topics[last].Dependencies, topics[0].ID)
		topics[0].Dependencies = append(topics[0].Dependencies, topics[last].ID)

		g, err := Build(topics)
		if g != nil || !errors.Is(err, entities.ErrCycleDetected) {
			t.Fatalf("run %d: Build = (%v, %v), want cycle error", run, g, err)
		}
	}
}

func TestTopologicalOrderRespectsDependencies(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for run := 0; run < 100; run++ {
		g := mustBuild(t, randomDAG(rng, 1+rng.Intn(20))...)
		order := TopologicalOrder(g)
		if len(order) != g.Len() {
			t.Fatalf("order has %d ids, graph %d", len(order), g.Len())
		}
		for _, id := range order {
			for _, dep := range g.Prerequisites(id) {
				if g.Position(dep) >= g.Position(id) {
					t.Fatalf("run %d: %s placed before its prerequisite %s", run, id, dep)
				}
			}
		}
	}
}

func TestTopologicalOrderTieBreakByID(t *testing.T) {
	g := mustBuild(t, topic("d"), topic("b"), topic("c", "d"), topic("a", "c"))

	want := []string{"b", "d", "c", "a"}
	if got := TopologicalOrder(g); !slices.Equal(got, want) {
		t.Errorf("TopologicalOrder = %v, want %v", got, want)
	}
	// Input order must not matter.
	g2 := mustBuild(t, topic("a", "c"), topic("c", "d"), topic("b"), topic("d"))
	if got := TopologicalOrder(g2); !slices.Equal(got, want) {
		t.Errorf("TopologicalOrder (shuffled input) = %v, want %v", got, want)
	}
}

func TestLayers(t *testing.T) {
	g := mustBuild(t, topic("a"), topic("b"), topic("c", "a"), topic("d", "c", "b"))

	want := [][]string{{"a", "b"}, {"c"}, {"d"}}
	got := g.Layers()
	if len(got) != len(want) {
		t.Fatalf("Layers = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("layer %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestIsUnlocked(t *testing.T) {
	a, b := topic("a"), topic("b", "a")

	tests := []struct {
		name     string
		topic    entities.Topic
		progress map[string]entities.ProgressRecord
		want     bool
	}{
		{"no deps", a, nil, true},
		{"dep missing progress", b, nil, false},
		{"dep in progress", b, map[string]entities.ProgressRecord{"a": {TopicID: "a", Status: entities.StatusInProgress}}, false},
		{"dep completed", b, completed("a"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnlocked(tt.topic, tt.progress); got != tt.want {
				t.Errorf("IsUnlocked = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnlockState(t *testing.T) {
	g := mustBuild(t, topic("a"), topic("b", "a"), topic("c"), topic("d", "b"))
	progress := completed("a")
	progress["c"] = entities.ProgressRecord{TopicID: "c", Status: entities.StatusInProgress}

	want := map[string]entities.UnlockStatus{
		"a": entities.UnlockCompleted,
		"b": entities.UnlockPending,
		"c": entities.UnlockInProgress,
		"d": entities.UnlockLocked,
	}
	got := UnlockState(g, progress)
	for id, w := range want {
		if got[id] != w {
			t.Errorf("state[%s] = %s, want %s", id, got[id], w)
		}
	}
}

func TestUnlockMonotonicInProgress(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for run := 0; run < 100; run++ {
		g := mustBuild(t, randomDAG(rng, 2+rng.Intn(12))...)
		progress := map[string]entities.ProgressRecord{}

		for _, id := range rng.Perm(g.Len()) {
			before := UnlockState(g, progress)
			topicID := g.Order()[id]
			progress[topicID] = entities.ProgressRecord{TopicID: topicID, Status: entities.StatusCompleted}
			after := UnlockState(g, progress)

			for other, st := range before {
				if st != entities.UnlockLocked && after[other] == entities.UnlockLocked {
					t.Fatalf("run %d: completing %s locked %s", run, topicID, other)
				}
			}
		}
	}
}

func TestBlockers(t *testing.T) {
	g := mustBuild(t, topic("a"), topic("b"), topic("c", "a", "b"))

	if got := g.Blockers("c", completed("b")); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Blockers = %v, want [a]", got)
	}
	if got := g.Blockers("c", completed("a", "b")); len(got) != 0 {
		t.Errorf("Blockers = %v, want none", got)
	}
}

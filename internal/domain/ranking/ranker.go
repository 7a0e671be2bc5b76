// Package ranking turns a validated topic graph and a user's progress into a
// bucketed study queue.
package ranking

import (
	"slices"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
	"github.com/aliskhannn/study-planner-bot/internal/domain/graph"
)

// Multipliers scale exam weight by the depth a topic has to be learned to.
type Multipliers struct {
	Master     float64
	Understand float64
	Familiar   float64
}

// DefaultMultipliers are used when a Ranker is created with zero values.
var DefaultMultipliers = Multipliers{Master: 1.0, Understand: 0.7, Familiar: 0.4}

// Of returns the multiplier for a depth; unknown depths score zero.
func (m Multipliers) Of(d entities.Depth) float64 {
	switch d {
	case entities.DepthMaster:
		return m.Master
	case entities.DepthUnderstand:
		return m.Understand
	case entities.DepthFamiliar:
		return m.Familiar
	}
	return 0
}

// Ranked is a topic with its computed place in the plan.
type Ranked struct {
	Topic    entities.Topic
	Bucket   entities.Bucket // empty for locked and completed topics
	Score    float64
	Status   entities.UnlockStatus
	Blockers []string
}

// Result is the ranked study queue of one user in one subject.
type Result struct {
	High      []Ranked
	Medium    []Ranked
	Low       []Ranked
	Awaiting  []Ranked // locked topics, in topological order
	Completed []Ranked // excluded from the queue, kept for statistics
}

// Active returns high, medium and low topics in ranked order.
func (r Result) Active() []Ranked {
	out := make([]Ranked, 0, len(r.High)+len(r.Medium)+len(r.Low))
	out = append(out, r.High...)
	out = append(out, r.Medium...)
	return append(out, r.Low...)
}

// Ranker scores and buckets topics.
type Ranker struct {
	multipliers Multipliers
}

// NewRanker creates a Ranker. A zero Multipliers value selects the defaults.
func NewRanker(m Multipliers) *Ranker {
	if m == (Multipliers{}) {
		m = DefaultMultipliers
	}
	return &Ranker{multipliers: m}
}

// Score is examWeight * depthMultiplier * unlockFactor.
func (r *Ranker) Score(t entities.Topic, unlocked bool) float64 {
	if !unlocked {
		return 0
	}
	return t.ExamWeight * r.multipliers.Of(t.RequiredDepth)
}

// RankTopics builds the graph and ranks it. Structural errors from the graph
// are returned unchanged and nothing is ranked.
func (r *Ranker) RankTopics(topics []entities.Topic, progress map[string]entities.ProgressRecord) (Result, error) {
	g, err := graph.Build(topics)
	if err != nil {
		return Result{}, err
	}
	return r.Rank(g, progress), nil
}

// Rank scores every topic of g for the given progress.
func (r *Ranker) Rank(g *graph.Graph, progress map[string]entities.ProgressRecord) Result {
	return r.RankWithState(g, progress, graph.UnlockState(g, progress))
}

// RankWithState ranks using a precomputed unlock state.
func (r *Ranker) RankWithState(
	g *graph.Graph,
	progress map[string]entities.ProgressRecord,
	state map[string]entities.UnlockStatus,
) Result {
	var (
		res    Result
		active []Ranked
	)

	for _, t := range g.Topics() {
		item := Ranked{Topic: t, Status: state[t.ID]}

		switch item.Status {
		case entities.UnlockCompleted:
			res.Completed = append(res.Completed, item)
		case entities.UnlockLocked:
			item.Blockers = g.Blockers(t.ID, progress)
			res.Awaiting = append(res.Awaiting, item)
		default:
			item.Score = r.Score(t, true)
			active = append(active, item)
		}
	}

	slices.SortStableFunc(active, func(a, b Ranked) int {
		return compare(g, a, b)
	})

	high, medium := split(len(active))
	for i := range active {
		switch {
		case i < high:
			active[i].Bucket = entities.BucketHigh
			res.High = append(res.High, active[i])
		case i < high+medium:
			active[i].Bucket = entities.BucketMedium
			res.Medium = append(res.Medium, active[i])
		default:
			active[i].Bucket = entities.BucketLow
			res.Low = append(res.Low, active[i])
		}
	}

	return res
}

// compare orders by score descending, then priority hint, then topological
// position, then id.
func compare(g *graph.Graph, a, b Ranked) int {
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	if ha, hb := a.Topic.PriorityHint.Rank(), b.Topic.PriorityHint.Rank(); ha != hb {
		return hb - ha
	}
	if pa, pb := g.Position(a.Topic.ID), g.Position(b.Topic.ID); pa != pb {
		return pa - pb
	}
	switch {
	case a.Topic.ID < b.Topic.ID:
		return -1
	case a.Topic.ID > b.Topic.ID:
		return 1
	}
	return 0
}

// split returns how many of n sorted topics go to the high and medium
// buckets. High takes the top third rounded up, so one topic is always high;
// medium takes half of the rest rounded up.
func split(n int) (high, medium int) {
	if n == 0 {
		return 0, 0
	}
	high = (n + 2) / 3
	medium = (n - high + 1) / 2
	return high, medium
}

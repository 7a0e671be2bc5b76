package entities

import (
	"fmt"
	"strings"
)

// Depth is how deeply a topic has to be learned for the exam.
type Depth string

const (
	DepthMaster     Depth = "master"
	DepthUnderstand Depth = "understand"
	DepthFamiliar   Depth = "familiar"
)

// ParseDepth parses a depth name case-insensitively.
func ParseDepth(s string) (Depth, error) {
	d := Depth(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("%w: unknown depth %q", ErrInvalidTopic, s)
	}
	return d, nil
}

// IsValid reports whether d is one of the known depths.
func (d Depth) IsValid() bool {
	switch d {
	case DepthMaster, DepthUnderstand, DepthFamiliar:
		return true
	}
	return false
}

// PriorityHint is an author-assigned priority used only to break score ties.
type PriorityHint string

const (
	HintHigh   PriorityHint = "high"
	HintMedium PriorityHint = "medium"
	HintLow    PriorityHint = "low"
)

// ParsePriorityHint parses a hint; an empty string means medium.
func ParsePriorityHint(s string) (PriorityHint, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return HintMedium, nil
	}
	h := PriorityHint(s)
	if h.Rank() == 0 {
		return "", fmt.Errorf("%w: unknown priority hint %q", ErrInvalidTopic, s)
	}
	return h, nil
}

// Rank orders hints: high=3, medium=2, low=1, unknown=0.
func (h PriorityHint) Rank() int {
	switch h {
	case HintHigh:
		return 3
	case HintMedium:
		return 2
	case HintLow:
		return 1
	}
	return 0
}

// Topic is a unit of study content inside a subject.
type Topic struct {
	ID            string
	Title         string
	SubjectID     string
	ExamWeight    float64      // relative importance, 0-100
	RequiredDepth Depth        // how deeply the topic must be learned
	Dependencies  []string     // topics that must be completed before this one unlocks
	PriorityHint  PriorityHint // tie-break weight
}

// Validate checks the fields of a single topic. Graph-level invariants
// (cycles, dangling references) are checked when the graph is built.
func (t Topic) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTopic)
	}
	if t.ExamWeight < 0 || t.ExamWeight > 100 {
		return fmt.Errorf("%w: topic %q exam weight %v out of range 0-100", ErrInvalidTopic, t.ID, t.ExamWeight)
	}
	if !t.RequiredDepth.IsValid() {
		return fmt.Errorf("%w: topic %q has unknown depth %q", ErrInvalidTopic, t.ID, t.RequiredDepth)
	}
	if t.PriorityHint != "" && t.PriorityHint.Rank() == 0 {
		return fmt.Errorf("%w: topic %q has unknown priority hint %q", ErrInvalidTopic, t.ID, t.PriorityHint)
	}
	return nil
}

// DependencyEdge says TopicID cannot unlock before DependsOn is completed.
type DependencyEdge struct {
	TopicID   string
	DependsOn string
}

// MergeEdges returns copies of topics whose Dependencies are the union of
// their own list and the edges that target them, de-duplicated and in first-seen order.
// An edge whose TopicID is not in the set is a dangling reference. A DependsOn
// id outside the set is left in place for the graph builder to report.
func MergeEdges(topics []Topic, edges []DependencyEdge) ([]Topic, error) {
	known := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		known[t.ID] = struct{}{}
	}

	extra := make(map[string][]string, len(edges))
	for _, e := range edges {
		if _, ok := known[e.TopicID]; !ok {
			return nil, fmt.Errorf("%w: edge from %q to %q", ErrDanglingReference, e.TopicID, e.DependsOn)
		}
		extra[e.TopicID] = append(extra[e.TopicID], e.DependsOn)
	}

	out := make([]Topic, len(topics))
	for i, t := range topics {
		seen := make(map[string]struct{}, len(t.Dependencies)+len(extra[t.ID]))
		deps := make([]string, 0, len(t.Dependencies)+len(extra[t.ID]))
		for _, list := range [][]string{t.Dependencies, extra[t.ID]} {
			for _, d := range list {
				if _, ok := seen[d]; ok {
					continue
				}
				seen[d] = struct{}{}
				deps = append(deps, d)
			}
		}
		t.Dependencies = deps
		out[i] = t
	}
	return out, nil
}

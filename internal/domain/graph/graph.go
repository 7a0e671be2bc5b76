// Package graph validates and indexes the prerequisite DAG of a subject.
//
// All functions are pure: they work on the supplied topics and progress only.
package graph

import (
	"fmt"
	"slices"

	"github.com/aliskhannn/study-planner-bot/internal/domain/entities"
)

// Graph is a validated, acyclic prerequisite structure.
type Graph struct {
	topics        map[string]entities.Topic
	prerequisites map[string][]string // topic -> direct prerequisites
	dependents    map[string][]string // topic -> topics that directly require it
	order         []string            // deterministic topological order
	position      map[string]int      // topic -> index in order
}

// Build constructs the graph. It fails with *DanglingReferenceError when a
// dependency is not in topics and with *CycleDetectedError on any cycle,
// self-dependencies included.
func Build(topics []entities.Topic) (*Graph, error) {
	g := &Graph{
		topics:        make(map[string]entities.Topic, len(topics)),
		prerequisites: make(map[string][]string, len(topics)),
		dependents:    make(map[string][]string, len(topics)),
	}

	for _, t := range topics {
		if _, ok := g.topics[t.ID]; ok {
			return nil, fmt.Errorf("%w: %q", entities.ErrDuplicateTopic, t.ID)
		}
		g.topics[t.ID] = t
	}

	for _, id := range g.ids() {
		t := g.topics[id]
		seen := make(map[string]struct{}, len(t.Dependencies))
		for _, dep := range t.Dependencies {
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}

			if _, ok := g.topics[dep]; !ok {
				return nil, &DanglingReferenceError{TopicID: id, Missing: dep}
			}
			g.prerequisites[id] = append(g.prerequisites[id], dep)
			g.dependents[dep] = append(g.dependents[dep], id)
		}
	}

	for id := range g.dependents {
		slices.Sort(g.dependents[id])
	}

	if path := g.findCycle(); path != nil {
		return nil, &CycleDetectedError{Path: path}
	}

	g.order = g.topologicalOrder()
	g.position = make(map[string]int, len(g.order))
	for i, id := range g.order {
		g.position[id] = i
	}

	return g, nil
}

// findCycle runs a depth-first search over prerequisite edges, tracking the
// topics currently on the stack. It returns the first cycle found or nil.
func (g *Graph) findCycle() []string {
	const (
		unvisited = iota
		inProgress
		done
	)

	state := make(map[string]int, len(g.topics))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		state[id] = inProgress
		stack = append(stack, id)

		for _, dep := range g.prerequisites[id] {
			switch state[dep] {
			case inProgress:
				start := slices.Index(stack, dep)
				path := slices.Clone(stack[start:])
				return append(path, dep)
			case unvisited:
				if path := visit(dep); path != nil {
					return path
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, id := range g.ids() {
		if state[id] == unvisited {
			if path := visit(id); path != nil {
				return path
			}
		}
	}
	return nil
}

func (g *Graph) ids() []string {
	ids := make([]string, 0, len(g.topics))
	for id := range g.topics {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of topics.
func (g *Graph) Len() int { return len(g.topics) }

// Topic returns the topic with the given id.
func (g *Graph) Topic(id string) (entities.Topic, bool) {
	t, ok := g.topics[id]
	return t, ok
}

// Topics returns all topics in topological order.
func (g *Graph) Topics() []entities.Topic {
	out := make([]entities.Topic, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.topics[id])
	}
	return out
}

// Prerequisites returns the direct prerequisites of a topic.
func (g *Graph) Prerequisites(id string) []string {
	return slices.Clone(g.prerequisites[id])
}

// Dependents returns the topics that directly require id, sorted by id.
func (g *Graph) Dependents(id string) []string {
	return slices.Clone(g.dependents[id])
}

// Order returns the deterministic topological order.
func (g *Graph) Order() []string {
	return slices.Clone(g.order)
}

// Position returns the index of id in the topological order, or -1.
func (g *Graph) Position(id string) int {
	if p, ok := g.position[id]; ok {
		return p
	}
	return -1
}

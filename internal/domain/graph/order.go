package graph

import "container/heap"

// idQueue is a min-heap of topic ids.
type idQueue []string

func (q idQueue) Len() int           { return len(q) }
func (q idQueue) Less(i, j int) bool { return q[i] < q[j] }
func (q idQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *idQueue) Push(x any) { *q = append(*q, x.(string)) }

func (q *idQueue) Pop() any {
	old := *q
	n := len(old)
	id := old[n-1]
	*q = old[:n-1]
	return id
}

// TopologicalOrder returns prerequisites before dependents. Among topics that
// are ready at the same time the smallest id comes first.
func TopologicalOrder(g *Graph) []string {
	return g.Order()
}

// topologicalOrder is Kahn's algorithm over an acyclic graph.
func (g *Graph) topologicalOrder() []string {
	inDegree := make(map[string]int, len(g.topics))
	q := &idQueue{}
	for id := range g.topics {
		inDegree[id] = len(g.prerequisites[id])
		if inDegree[id] == 0 {
			*q = append(*q, id)
		}
	}
	heap.Init(q)

	order := make([]string, 0, len(g.topics))
	for q.Len() > 0 {
		id := heap.Pop(q).(string)
		order = append(order, id)

		for _, dependent := range g.dependents[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				heap.Push(q, dependent)
			}
		}
	}

	return order
}

// Layers groups topics by their longest prerequisite chain: layer 0 holds
// topics without prerequisites, layer 1 topics whose prerequisites are all
// in layer 0, and so on. Each layer is sorted by id.
func (g *Graph) Layers() [][]string {
	depth := make(map[string]int, len(g.order))
	maxDepth := -1
	for _, id := range g.order {
		d := 0
		for _, dep := range g.prerequisites[id] {
			if depth[dep]+1 > d {
				d = depth[dep] + 1
			}
		}
		depth[id] = d
		if d > maxDepth {
			maxDepth = d
		}
	}

	layers := make([][]string, maxDepth+1)
	for _, id := range g.ids() {
		layers[depth[id]] = append(layers[depth[id]], id)
	}
	return layers
}

package depgraph

import (
	"container/heap"
	"slices"
)

// Ordering is a topological order over the graph with back edges removed.
type Ordering struct {
	Order    []string
	Depth    map[string]int
	Excluded []Edge
	Cycles   [][]string
}

// Kept reports whether the edge survived cycle breaking.
func (o Ordering) Kept(e Edge) bool {
	return !slices.Contains(o.Excluded, e)
}

type readyQueue struct {
	items []Node
}

func (q readyQueue) Len() int { return len(q.items) }

func (q readyQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.TemplateID != b.TemplateID {
		return a.TemplateID < b.TemplateID
	}
	return a.ID < b.ID
}

func (q readyQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *readyQueue) Push(x any) {
	q.items = append(q.items, x.(Node))
}

func (q *readyQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}

// TopologicalOrder runs Kahn's algorithm after dropping the back edges found
// by DetectCycles. Ready nodes are taken by priority, highest first, then by
// template id and instance id.
func TopologicalOrder(g *Graph) Ordering {
	cycles, back := walk(g)
	excluded := make(map[Edge]bool, len(back))
	for _, e := range back {
		excluded[e] = true
	}

	indegree := make(map[string]int, len(g.ids))
	for _, e := range g.edges {
		if !excluded[e] {
			indegree[e.To]++
		}
	}

	q := &readyQueue{}
	for _, id := range g.ids {
		if indegree[id] == 0 {
			q.items = append(q.items, g.nodes[id])
		}
	}
	heap.Init(q)

	out := Ordering{
		Order:    make([]string, 0, len(g.ids)),
		Depth:    make(map[string]int, len(g.ids)),
		Excluded: back,
		Cycles:   cycles,
	}
	placed := make(map[string]bool, len(g.ids))
	for q.Len() > 0 {
		n := heap.Pop(q).(Node)
		out.Order = append(out.Order, n.ID)
		placed[n.ID] = true
		for _, next := range g.dependents[n.ID] {
			e := Edge{From: n.ID, To: next}
			if excluded[e] {
				continue
			}
			if d := out.Depth[n.ID] + 1; d > out.Depth[next] {
				out.Depth[next] = d
			}
			indegree[next]--
			if indegree[next] == 0 {
				heap.Push(q, g.nodes[next])
			}
		}
	}

	// Unreachable once back edges are gone, kept so every node is ordered.
	for _, id := range g.ids {
		if !placed[id] {
			out.Order = append(out.Order, id)
		}
	}
	return out
}

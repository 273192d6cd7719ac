// Package depgraph orders a day's task instances by their prerequisites.
package depgraph

import (
	"slices"

	"github.com/sandeepkv93/dayplan/internal/model"
)

type Node struct {
	ID         string
	TemplateID string
	Priority   int
	Mandatory  bool
	DependsOn  string
}

// Edge points from a prerequisite instance to the instance that waits on it.
type Edge struct {
	From string
	To   string
}

// Graph is built once per day and never mutated afterwards.
type Graph struct {
	nodes      map[string]Node
	ids        []string
	dependents map[string][]string
	prereqs    map[string][]string
	edges      []Edge
	missing    []string
}

// BuildGraph creates one node per instance. A dependent whose prerequisite
// template has no instance that day is recorded as missing and left
// unconstrained.
func BuildGraph(tasks []model.DayTask) *Graph {
	g := &Graph{
		nodes:      make(map[string]Node, len(tasks)),
		dependents: make(map[string][]string),
		prereqs:    make(map[string][]string),
	}
	byTemplate := make(map[string][]string)
	for _, t := range tasks {
		def := t.Definition.Normalized()
		n := Node{
			ID:         t.ID(),
			TemplateID: t.TemplateID(),
			Priority:   def.Priority,
			Mandatory:  def.IsMandatory,
			DependsOn:  def.DependsOn,
		}
		if _, dup := g.nodes[n.ID]; dup {
			continue
		}
		g.nodes[n.ID] = n
		g.ids = append(g.ids, n.ID)
		byTemplate[n.TemplateID] = append(byTemplate[n.TemplateID], n.ID)
	}
	slices.Sort(g.ids)

	for _, id := range g.ids {
		n := g.nodes[id]
		if n.DependsOn == "" {
			continue
		}
		targets := byTemplate[n.DependsOn]
		if len(targets) == 0 {
			g.missing = append(g.missing, id)
			continue
		}
		for _, from := range targets {
			g.dependents[from] = append(g.dependents[from], id)
			g.prereqs[id] = append(g.prereqs[id], from)
			g.edges = append(g.edges, Edge{From: from, To: id})
		}
	}
	for id := range g.dependents {
		slices.Sort(g.dependents[id])
	}
	for id := range g.prereqs {
		slices.Sort(g.prereqs[id])
	}
	return g
}

func (g *Graph) Len() int { return len(g.ids) }

// IDs returns node ids in sorted order.
func (g *Graph) IDs() []string { return slices.Clone(g.ids) }

func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Missing lists dependents whose prerequisite template is absent that day.
func (g *Graph) Missing() []string { return slices.Clone(g.missing) }

func (g *Graph) Dependents(id string) []string { return slices.Clone(g.dependents[id]) }

func (g *Graph) Prerequisites(id string) []string { return slices.Clone(g.prereqs[id]) }

package depgraph

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sandeepkv93/dayplan/internal/model"
)

// Resolution bundles everything the scheduler needs about one day's graph.
type Resolution struct {
	Graph     *Graph
	Ordering  Ordering
	Flags     map[string][]model.ConflictFlag
	Conflicts []model.ScheduleConflict
}

// PrerequisitesOf returns the prerequisites of id whose edges were kept.
func (r Resolution) PrerequisitesOf(id string) []string {
	if r.Graph == nil {
		return nil
	}
	var out []string
	for _, from := range r.Graph.prereqs[id] {
		if r.Ordering.Kept(Edge{From: from, To: id}) {
			out = append(out, from)
		}
	}
	return out
}

// KeptEdges lists the edges the ordering honours.
func (r Resolution) KeptEdges() []Edge {
	if r.Graph == nil {
		return nil
	}
	out := make([]Edge, 0, len(r.Graph.edges))
	for _, e := range r.Graph.edges {
		if r.Ordering.Kept(e) {
			out = append(out, e)
		}
	}
	return out
}

type Resolver struct {
	log zerolog.Logger
}

type Option func(*Resolver)

func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) BuildGraph(tasks []model.DayTask) *Graph { return BuildGraph(tasks) }

func (r *Resolver) DetectCycles(g *Graph) [][]string { return DetectCycles(g) }

func (r *Resolver) TopologicalOrder(g *Graph) Ordering { return TopologicalOrder(g) }

func (r *Resolver) EarliestStart(prereq *model.ScheduledBlock, buffer int) int {
	return EarliestStart(prereq, buffer)
}

// EarliestStart is the first minute a dependent may begin: the end of its
// prerequisite plus buffer, or 0 when there is no prerequisite block.
func EarliestStart(prereq *model.ScheduledBlock, buffer int) int {
	if prereq == nil {
		return 0
	}
	if buffer < 0 {
		buffer = 0
	}
	return prereq.End + buffer
}

// Resolve never fails. Cycles and dangling prerequisites come back as
// conflict flags keyed by instance id.
func (r *Resolver) Resolve(tasks []model.DayTask) Resolution {
	g := BuildGraph(tasks)
	ord := TopologicalOrder(g)
	res := Resolution{
		Graph:    g,
		Ordering: ord,
		Flags:    make(map[string][]model.ConflictFlag),
	}

	for _, cycle := range ord.Cycles {
		mandatory := make([]bool, 0, len(cycle))
		for _, id := range cycle {
			mandatory = append(mandatory, g.nodes[id].Mandatory)
		}
		sev := model.SeverityFor(mandatory...)
		msg := "circular dependency: " + cyclePathLabel(g, cycle)
		for _, id := range cycle {
			res.Flags[id] = append(res.Flags[id], model.ConflictFlag{
				Kind:            model.ConflictDependencyViolation,
				Severity:        sev,
				RelatedBlockIDs: others(cycle, id),
				Message:         msg,
			})
		}
		res.Conflicts = append(res.Conflicts, model.ScheduleConflict{
			Kind:        model.ConflictDependencyViolation,
			Severity:    sev,
			InstanceIDs: append([]string(nil), cycle...),
			Message:     msg,
		})
		r.log.Warn().Strs("instances", cycle).Msg("dependency cycle")
	}

	for _, id := range g.missing {
		n := g.nodes[id]
		sev := model.SeverityFor(n.Mandatory)
		msg := fmt.Sprintf("prerequisite %q has no instance on this day", n.DependsOn)
		res.Flags[id] = append(res.Flags[id], model.ConflictFlag{
			Kind:     model.ConflictMissingDependency,
			Severity: sev,
			Message:  msg,
		})
		res.Conflicts = append(res.Conflicts, model.ScheduleConflict{
			Kind:        model.ConflictMissingDependency,
			Severity:    sev,
			InstanceIDs: []string{id},
			Message:     msg,
		})
		r.log.Debug().Str("instance", id).Str("depends_on", n.DependsOn).Msg("missing prerequisite")
	}
	return res
}

func cyclePathLabel(g *Graph, cycle []string) string {
	parts := make([]string, 0, len(cycle)+1)
	for _, id := range cycle {
		parts = append(parts, g.nodes[id].TemplateID)
	}
	parts = append(parts, g.nodes[cycle[0]].TemplateID)
	return strings.Join(parts, " -> ")
}

func others(ids []string, self string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

// Package scheduler places one day's task instances on the clock.
package scheduler

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sandeepkv93/dayplan/internal/depgraph"
	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/recurrence"
)

const (
	DefaultSlotIncrement = 5
	DefaultBufferMinutes = 5
)

type RecurrenceSource interface {
	ShouldOccurOnDate(def model.TaskDefinition, date model.Date) bool
	DueOn(defs []model.TaskDefinition, date model.Date) []model.TaskDefinition
}

type DependencyResolver interface {
	Resolve(tasks []model.DayTask) depgraph.Resolution
	EarliestStart(prereq *model.ScheduledBlock, buffer int) int
}

// DayInput is an immutable snapshot of everything one computation needs.
// NotBefore keeps flexible tasks from being placed before a minute of day,
// typically "now" when planning today.
type DayInput struct {
	Date      model.Date
	Tasks     []model.DayTask
	Sleep     model.SleepSchedule
	NotBefore int
}

type Engine struct {
	resolver   DependencyResolver
	recurrence RecurrenceSource
	increment  int
	buffer     int
	log        zerolog.Logger
}

type Option func(*Engine)

func WithSlotIncrement(minutes int) Option {
	return func(e *Engine) {
		if minutes > 0 {
			e.increment = minutes
		}
	}
}

func WithBufferMinutes(minutes int) Option {
	return func(e *Engine) {
		if minutes >= 0 {
			e.buffer = minutes
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func NewEngine(resolver DependencyResolver, rec RecurrenceSource, opts ...Option) *Engine {
	if resolver == nil {
		resolver = depgraph.NewResolver()
	}
	if rec == nil {
		rec = recurrence.NewEngine()
	}
	e := &Engine{
		resolver:   resolver,
		recurrence: rec,
		increment:  DefaultSlotIncrement,
		buffer:     DefaultBufferMinutes,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// placement is the engine's scratch state for one instance. Blocks are only
// built from it once every step has run.
type placement struct {
	task     model.DayTask
	def      model.TaskDefinition
	start    int
	duration int
	lo, hi   int
	pinned   bool
	placed   bool
	crunched bool
	outside  bool
	flags    []model.ConflictFlag
}

func (p *placement) id() string { return p.task.ID() }
func (p *placement) end() int   { return p.start + p.duration }

func (p *placement) shrinkable() bool {
	return !p.def.IsMandatory && p.def.MinDurationMinutes < p.duration
}

func (p *placement) addFlag(f model.ConflictFlag) {
	p.flags = append(p.flags, f)
}

// Schedule always returns a schedule. Problems are reported as conflict
// flags and the ImpossibleDay signal, never as errors.
func (e *Engine) Schedule(in DayInput) model.ScheduleResult {
	tasks := placeableTasks(in.Tasks)
	result := model.ScheduleResult{
		Date:             in.Date,
		Blocks:           []model.ScheduledBlock{},
		Conflicts:        []model.ScheduleConflict{},
		AvailableMinutes: in.Sleep.AwakeMinutes(),
	}

	work := make([]*placement, 0, len(tasks))
	byID := make(map[string]*placement, len(tasks))
	for _, t := range tasks {
		def := t.Definition.Normalized()
		p := &placement{task: t, def: def, duration: def.DurationMinutes}
		if def.IsMandatory {
			result.RequiredMinutes += def.DurationMinutes
		}
		work = append(work, p)
		byID[p.id()] = p
	}
	result.ImpossibleDay = result.RequiredMinutes > result.AvailableMinutes

	anchors := make([]*placement, 0)
	for _, p := range work {
		if start, ok := anchorStart(p); ok {
			p.start = start
			p.pinned = true
			p.placed = true
			anchors = append(anchors, p)
		}
	}
	flagAnchorOverlaps(anchors)

	res := e.resolver.Resolve(tasks)
	for id, flags := range res.Flags {
		if p, ok := byID[id]; ok {
			p.flags = append(p.flags, flags...)
		}
	}

	dayLo, dayHi := in.Sleep.DaySpan()
	flex := e.flexibleOrder(work, res)
	for _, p := range flex {
		p.lo, p.hi = placementRange(p.def, dayLo, dayHi)
	}
	e.crunch(flex, anchors, dayLo, dayHi)

	placed := slices.Clone(anchors)
	for _, p := range flex {
		e.place(p, placed, byID, res, in.NotBefore, dayLo, dayHi)
		placed = append(placed, p)
	}

	result.Blocks, result.Conflicts = finalize(work, byID, res)
	e.log.Debug().
		Str("date", in.Date.String()).
		Int("blocks", len(result.Blocks)).
		Int("conflicts", len(result.Conflicts)).
		Bool("impossible", result.ImpossibleDay).
		Msg("schedule computed")
	return result
}

func placeableTasks(in []model.DayTask) []model.DayTask {
	out := make([]model.DayTask, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		if !t.Instance.Status.Placeable() || seen[t.ID()] {
			continue
		}
		seen[t.ID()] = true
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b model.DayTask) int { return cmp.Compare(a.ID(), b.ID()) })
	return out
}

// anchorStart reports where a pinned task goes. Fixed tasks sit at their
// fixed time and an override pins any task.
func anchorStart(p *placement) (int, bool) {
	if o := p.task.Instance.ScheduledTimeOverride; o != nil {
		return int(*o), true
	}
	if p.def.IsFixed() && p.def.FixedTime != nil {
		return int(*p.def.FixedTime), true
	}
	return 0, false
}

func flagAnchorOverlaps(anchors []*placement) {
	for i := 0; i < len(anchors); i++ {
		for j := i + 1; j < len(anchors); j++ {
			a, b := anchors[i], anchors[j]
			if overlap(a.start, a.end(), b.start, b.end()) > 0 {
				a.addFlag(overlapFlag(a, b))
				b.addFlag(overlapFlag(b, a))
			}
		}
	}
}

// flexibleOrder runs Kahn's algorithm over the kept edges between unpinned
// tasks. Pinned prerequisites are already placed, so only flexible ones hold
// a task back. Ready tasks go by priority, highest first, then window start,
// then template id and instance id.
func (e *Engine) flexibleOrder(work []*placement, res depgraph.Resolution) []*placement {
	flex := make(map[string]*placement, len(work))
	for _, p := range work {
		if !p.pinned {
			flex[p.id()] = p
		}
	}
	indegree := make(map[string]int, len(flex))
	dependents := make(map[string][]*placement, len(flex))
	for id, p := range flex {
		for _, pre := range res.PrerequisitesOf(id) {
			if _, ok := flex[pre]; ok {
				indegree[id]++
				dependents[pre] = append(dependents[pre], p)
			}
		}
	}

	ready := make([]*placement, 0, len(flex))
	for id, p := range flex {
		if indegree[id] == 0 {
			ready = append(ready, p)
		}
	}
	out := make([]*placement, 0, len(flex))
	for len(ready) > 0 {
		i := 0
		for j := 1; j < len(ready); j++ {
			if readyBefore(ready[j], ready[i]) {
				i = j
			}
		}
		p := ready[i]
		ready = slices.Delete(ready, i, i+1)
		out = append(out, p)
		for _, next := range dependents[p.id()] {
			indegree[next.id()]--
			if indegree[next.id()] == 0 {
				ready = append(ready, next)
			}
		}
	}

	// Kept edges are acyclic, so this only guards against a foreign resolver.
	if len(out) < len(flex) {
		rest := make([]*placement, 0, len(flex)-len(out))
		for _, p := range flex {
			if !slices.Contains(out, p) {
				rest = append(rest, p)
			}
		}
		slices.SortFunc(rest, func(a, b *placement) int { return cmp.Compare(a.id(), b.id()) })
		out = append(out, rest...)
	}
	return out
}

func readyBefore(a, b *placement) bool {
	if a.def.Priority != b.def.Priority {
		return a.def.Priority > b.def.Priority
	}
	aw, _ := a.def.TimeWindow.Bounds()
	bw, _ := b.def.TimeWindow.Bounds()
	if aw != bw {
		return aw < bw
	}
	if a.def.ID != b.def.ID {
		return a.def.ID < b.def.ID
	}
	return a.id() < b.id()
}

// placementRange is the task's window clipped to the waking day, unless the
// clip would leave no room for even the minimum duration.
func placementRange(def model.TaskDefinition, dayLo, dayHi int) (int, int) {
	lo, hi := def.TimeWindow.Bounds()
	clo, chi := max(lo, dayLo), min(hi, dayHi)
	if chi-clo >= def.MinDurationMinutes {
		return clo, chi
	}
	return lo, hi
}

// crunch shrinks non-mandatory tasks to their minimum duration wherever the
// demand of a window, or of the whole waking day, exceeds its free minutes.
func (e *Engine) crunch(flex, anchors []*placement, dayLo, dayHi int) {
	type span struct{ lo, hi int }
	spans := make([]span, 0, len(flex)+1)
	for _, p := range flex {
		s := span{p.lo, p.hi}
		if !slices.Contains(spans, s) {
			spans = append(spans, s)
		}
	}
	slices.SortFunc(spans, func(a, b span) int {
		if c := cmp.Compare(a.hi-a.lo, b.hi-b.lo); c != 0 {
			return c
		}
		return cmp.Compare(a.lo, b.lo)
	})
	spans = append(spans, span{dayLo, dayHi})

	for _, s := range spans {
		members := make([]*placement, 0)
		demand := 0
		for _, p := range flex {
			if p.lo >= s.lo && p.hi <= s.hi {
				members = append(members, p)
				demand += p.duration
			}
		}
		free := freeMinutes(s.lo, s.hi, anchors)
		if demand <= free {
			continue
		}
		shrunk := shrink(members, demand-free)
		if shrunk > 0 {
			e.log.Debug().
				Str("span", model.FormatMinutes(s.lo)+"-"+model.FormatMinutes(s.hi)).
				Int("demand", demand).
				Int("free", free).
				Int("shrunk", shrunk).
				Msg("crunch time")
		}
	}
}

// shrink cuts non-mandatory tasks to their minimum, lowest priority first,
// until excess minutes are recovered. It returns the number of tasks cut.
func shrink(members []*placement, excess int) int {
	candidates := make([]*placement, 0, len(members))
	for _, p := range members {
		if p.shrinkable() {
			candidates = append(candidates, p)
		}
	}
	slices.SortFunc(candidates, func(a, b *placement) int {
		if c := cmp.Compare(a.def.Priority, b.def.Priority); c != 0 {
			return c
		}
		if c := cmp.Compare(b.def.ID, a.def.ID); c != 0 {
			return c
		}
		return cmp.Compare(b.id(), a.id())
	})
	n := 0
	for _, p := range candidates {
		if excess <= 0 {
			break
		}
		excess -= p.duration - p.def.MinDurationMinutes
		p.duration = p.def.MinDurationMinutes
		p.crunched = true
		n++
	}
	return n
}

func freeMinutes(lo, hi int, anchors []*placement) int {
	if hi <= lo {
		return 0
	}
	type iv struct{ s, e int }
	clipped := make([]iv, 0, len(anchors))
	for _, a := range anchors {
		s, e := max(a.start, lo), min(a.end(), hi)
		if s < e {
			clipped = append(clipped, iv{s, e})
		}
	}
	slices.SortFunc(clipped, func(a, b iv) int { return cmp.Compare(a.s, b.s) })
	covered, cursor := 0, lo
	for _, c := range clipped {
		if c.e <= cursor {
			continue
		}
		covered += c.e - max(c.s, cursor)
		cursor = c.e
	}
	return hi - lo - covered
}

func (e *Engine) place(p *placement, placed []*placement, byID map[string]*placement, res depgraph.Resolution, notBefore, dayLo, dayHi int) {
	earliest := 0
	for _, pre := range res.PrerequisitesOf(p.id()) {
		q, ok := byID[pre]
		if !ok || !q.placed {
			continue
		}
		block := model.ScheduledBlock{InstanceID: q.id(), Start: q.start, End: q.end()}
		earliest = max(earliest, e.resolver.EarliestStart(&block, e.buffer))
	}
	floor := max(earliest, notBefore)
	lo := max(p.lo, floor)

	fits := func(from, to, d int) (int, bool) {
		for s := e.alignUp(from); s+d <= to; s += e.increment {
			if !collides(s, s+d, placed) {
				return s, true
			}
		}
		return 0, false
	}
	attempt := func(from, to int) bool {
		if s, ok := fits(from, to, p.duration); ok {
			p.start = s
			return true
		}
		if p.shrinkable() {
			if s, ok := fits(from, to, p.def.MinDurationMinutes); ok {
				p.start = s
				p.duration = p.def.MinDurationMinutes
				p.crunched = true
				return true
			}
		}
		return false
	}

	// The window is only abandoned when the floor leaves no room in it even
	// at the minimum duration. A full window is a capacity conflict instead.
	need := p.duration
	if p.shrinkable() {
		need = p.def.MinDurationMinutes
	}
	pushed := floor+need > p.hi

	ok := attempt(lo, p.hi)
	if !ok && pushed {
		ok = attempt(max(floor, dayLo), dayHi)
	}
	if !ok {
		if p.shrinkable() {
			p.duration = p.def.MinDurationMinutes
			p.crunched = true
		}
		to := p.hi - p.duration
		if pushed {
			to = max(to, dayHi-p.duration)
		}
		p.start = e.leastOverlap(lo, to, p.duration, placed)
		e.log.Debug().Str("instance", p.id()).Str("start", model.FormatMinutes(p.start)).Msg("no free slot, placed with overlap")
	}
	p.placed = true
	p.outside = p.start < p.lo || p.end() > p.hi
}

// leastOverlap scans [from, to] for the start that overlaps placed blocks
// the least, earliest first on ties.
func (e *Engine) leastOverlap(from, to, d int, placed []*placement) int {
	from = min(max(from, 0), max(model.MinutesPerDay-d, 0))
	best, bestCost := from, overlapCost(from, d, placed)
	for s := e.alignUp(from); s <= to && bestCost > 0; s += e.increment {
		if cost := overlapCost(s, d, placed); cost < bestCost {
			best, bestCost = s, cost
		}
	}
	return best
}

func overlapCost(start, d int, placed []*placement) int {
	cost := 0
	for _, q := range placed {
		cost += overlap(start, start+d, q.start, q.end())
	}
	return cost
}

func (e *Engine) alignUp(m int) int {
	if m <= 0 {
		return 0
	}
	return (m + e.increment - 1) / e.increment * e.increment
}

func collides(start, end int, placed []*placement) bool {
	for _, q := range placed {
		if overlap(start, end, q.start, q.end()) > 0 {
			return true
		}
	}
	return false
}

func overlap(aStart, aEnd, bStart, bEnd int) int {
	return max(0, min(aEnd, bEnd)-max(aStart, bStart))
}

func overlapFlag(p, other *placement) model.ConflictFlag {
	return model.ConflictFlag{
		Kind:            model.ConflictTimeOverlap,
		Severity:        model.SeverityFor(p.def.IsMandatory, other.def.IsMandatory),
		RelatedBlockIDs: []string{other.id()},
		Message: fmt.Sprintf("overlaps %s (%s-%s)", other.def.Title,
			model.FormatMinutes(other.start), model.FormatMinutes(other.end())),
	}
}

// finalize re-checks every pair of blocks and every kept dependency edge,
// then builds the immutable blocks and the deduplicated conflict list.
func finalize(work []*placement, byID map[string]*placement, res depgraph.Resolution) ([]model.ScheduledBlock, []model.ScheduleConflict) {
	ordered := slices.Clone(work)
	slices.SortFunc(ordered, func(a, b *placement) int {
		if c := cmp.Compare(a.start, b.start); c != 0 {
			return c
		}
		return cmp.Compare(a.id(), b.id())
	})

	conflicts := newConflictSet()
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			a, b := ordered[i], ordered[j]
			if b.start >= a.end() {
				continue
			}
			if overlap(a.start, a.end(), b.start, b.end()) == 0 {
				continue
			}
			a.addFlag(overlapFlag(a, b))
			b.addFlag(overlapFlag(b, a))
			conflicts.add(model.ScheduleConflict{
				Kind:        model.ConflictTimeOverlap,
				Severity:    model.SeverityFor(a.def.IsMandatory, b.def.IsMandatory),
				InstanceIDs: []string{a.id(), b.id()},
				Message:     fmt.Sprintf("%s overlaps %s", a.def.Title, b.def.Title),
			})
		}
	}

	for _, edge := range res.KeptEdges() {
		pre, okPre := byID[edge.From]
		dep, okDep := byID[edge.To]
		if !okPre || !okDep || dep.start >= pre.end() {
			continue
		}
		sev := model.SeverityFor(dep.def.IsMandatory, pre.def.IsMandatory)
		msg := fmt.Sprintf("%s starts before %s ends", dep.def.Title, pre.def.Title)
		dep.addFlag(model.ConflictFlag{
			Kind:            model.ConflictDependencyViolation,
			Severity:        sev,
			RelatedBlockIDs: []string{pre.id()},
			Message:         msg,
		})
		conflicts.add(model.ScheduleConflict{
			Kind:        model.ConflictDependencyViolation,
			Severity:    sev,
			InstanceIDs: []string{pre.id(), dep.id()},
			Message:     msg,
		})
	}
	for _, c := range res.Conflicts {
		conflicts.add(c)
	}

	blocks := make([]model.ScheduledBlock, 0, len(ordered))
	for _, p := range ordered {
		blocks = append(blocks, model.ScheduledBlock{
			InstanceID:      p.id(),
			TemplateID:      p.task.TemplateID(),
			Title:           p.def.Title,
			Status:          p.task.Instance.Status,
			Start:           p.start,
			End:             p.end(),
			DurationMinutes: p.duration,
			Window:          model.ClassifyStart(p.start),
			Priority:        p.def.Priority,
			Mandatory:       p.def.IsMandatory,
			Fixed:           p.def.IsFixed(),
			Pinned:          p.pinned,
			Crunched:        p.crunched,
			OutsideWindow:   p.outside,
			Conflicts:       dedupeFlags(p.flags),
		})
	}
	return blocks, conflicts.list()
}

func dedupeFlags(flags []model.ConflictFlag) []model.ConflictFlag {
	if len(flags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(flags))
	out := make([]model.ConflictFlag, 0, len(flags))
	for _, f := range flags {
		related := slices.Clone(f.RelatedBlockIDs)
		slices.Sort(related)
		key := string(f.Kind) + "|" + strings.Join(related, ",")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

type conflictSet struct {
	seen  map[string]bool
	items []model.ScheduleConflict
}

func newConflictSet() *conflictSet {
	return &conflictSet{seen: make(map[string]bool)}
}

func (s *conflictSet) add(c model.ScheduleConflict) {
	ids := slices.Clone(c.InstanceIDs)
	slices.Sort(ids)
	key := string(c.Kind) + "|" + strings.Join(ids, ",")
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.items = append(s.items, c)
}

// list orders conflicts worst first, keeping discovery order within a severity.
func (s *conflictSet) list() []model.ScheduleConflict {
	out := slices.Clone(s.items)
	if out == nil {
		out = []model.ScheduleConflict{}
	}
	slices.SortStableFunc(out, func(a, b model.ScheduleConflict) int {
		return cmp.Compare(b.Severity.Rank(), a.Severity.Rank())
	})
	return out
}

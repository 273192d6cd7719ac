// Package recurrence decides which dates a task definition occurs on.
//
// Every function here is pure: the same definition and date always give the
// same answer, which lets callers recompute freely and memoize the results.
package recurrence

import (
	"iter"
	"time"

	"github.com/sandeepkv93/dayplan/internal/model"
)

// DefaultHorizonYears is how far past the rule interval a forward scan looks
// when no horizon is configured.
const DefaultHorizonYears = 10

type Engine struct {
	horizonYears int
}

type Option func(*Engine)

// WithHorizonYears sets how many years beyond the rule interval a forward
// scan may look before giving up.
func WithHorizonYears(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.horizonYears = n
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{horizonYears: DefaultHorizonYears}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate reports malformed rules. ShouldOccurOnDate treats an invalid rule
// as never occurring, so callers that want the reason should call this first.
func (e *Engine) Validate(rule model.RecurrenceRule) error {
	return rule.Validate()
}

func (e *Engine) ShouldOccurOnDate(def model.TaskDefinition, date model.Date) bool {
	if !matchesBase(def, date) {
		return false
	}
	return withinLimits(def, date)
}

// NextOccurrenceOnOrAfter scans forward from from. The scan is bounded by
// the rule's end conditions and by the engine horizon.
func (e *Engine) NextOccurrenceOnOrAfter(def model.TaskDefinition, from model.Date) (model.Date, bool) {
	rule := def.Recurrence
	if rule.Validate() != nil || def.StartDate.IsZero() {
		return model.Date{}, false
	}
	if from.Before(def.StartDate) {
		from = def.StartDate
	}
	last := e.scanLimit(def, from)
	if from.After(last) {
		return model.Date{}, false
	}
	if limit := rule.EndAfterOccurrences; limit > 0 {
		if countThrough(def, from.AddDays(-1), limit) >= limit {
			return model.Date{}, false
		}
	}

	if rule.Frequency == model.FrequencyDaily {
		next := firstDailyOnOrAfter(def, from)
		if next.After(last) {
			return model.Date{}, false
		}
		return next, true
	}
	for d := from; !d.After(last); d = d.AddDays(1) {
		if matchesBase(def, d) {
			return d, true
		}
	}
	return model.Date{}, false
}

// OccurrencesInRange yields every occurrence in [start, end] in order. The
// sequence is lazy and can be ranged over any number of times.
func (e *Engine) OccurrencesInRange(def model.TaskDefinition, start, end model.Date) iter.Seq[model.Date] {
	return func(yield func(model.Date) bool) {
		rule := def.Recurrence
		if rule.Validate() != nil || def.StartDate.IsZero() {
			return
		}
		lo, hi := start, end
		if lo.Before(def.StartDate) {
			lo = def.StartDate
		}
		if rule.EndDate != nil && rule.EndDate.Before(hi) {
			hi = *rule.EndDate
		}
		if lo.After(hi) {
			return
		}

		limit := rule.EndAfterOccurrences
		count := 0
		if limit > 0 {
			count = countThrough(def, lo.AddDays(-1), limit)
			if count >= limit {
				return
			}
		}
		emit := func(d model.Date) bool {
			count++
			if limit > 0 && count > limit {
				return false
			}
			return yield(d)
		}

		if rule.Frequency == model.FrequencyDaily {
			step := rule.Step()
			for d := firstDailyOnOrAfter(def, lo); !d.After(hi); d = d.AddDays(step) {
				if !emit(d) {
					return
				}
			}
			return
		}
		for d := lo; !d.After(hi); d = d.AddDays(1) {
			if !matchesBase(def, d) {
				continue
			}
			if !emit(d) {
				return
			}
		}
	}
}

// Preview lists up to count upcoming occurrences starting at from.
func (e *Engine) Preview(def model.TaskDefinition, from model.Date, count int) []model.Date {
	if count <= 0 {
		return []model.Date{}
	}
	out := make([]model.Date, 0, count)
	cursor := from
	for len(out) < count {
		next, ok := e.NextOccurrenceOnOrAfter(def, cursor)
		if !ok {
			break
		}
		out = append(out, next)
		cursor = next.AddDays(1)
	}
	return out
}

// DueOn returns the active definitions that occur on date, in input order.
func (e *Engine) DueOn(defs []model.TaskDefinition, date model.Date) []model.TaskDefinition {
	out := make([]model.TaskDefinition, 0, len(defs))
	for _, def := range defs {
		if def.Active && e.ShouldOccurOnDate(def, date) {
			out = append(out, def)
		}
	}
	return out
}

func (e *Engine) scanLimit(def model.TaskDefinition, from model.Date) model.Date {
	years := def.Recurrence.Step() + e.horizonYears
	last := model.DateOf(from.Time().AddDate(years, 0, 0))
	if end := def.Recurrence.EndDate; end != nil && end.Before(last) {
		last = *end
	}
	return last
}

func withinLimits(def model.TaskDefinition, date model.Date) bool {
	rule := def.Recurrence
	if rule.EndDate != nil && date.After(*rule.EndDate) {
		return false
	}
	if limit := rule.EndAfterOccurrences; limit > 0 {
		if countThrough(def, date, limit+1) > limit {
			return false
		}
	}
	return true
}

// countThrough counts base occurrences in [StartDate, date], stopping early
// once stopAt is reached.
func countThrough(def model.TaskDefinition, date model.Date, stopAt int) int {
	start := def.StartDate
	if date.Before(start) {
		return 0
	}
	switch def.Recurrence.Frequency {
	case model.FrequencyNone:
		return 1
	case model.FrequencyDaily:
		return start.DaysUntil(date)/def.Recurrence.Step() + 1
	}
	n := 0
	for d := start; !d.After(date); d = d.AddDays(1) {
		if matchesBase(def, d) {
			n++
			if stopAt > 0 && n >= stopAt {
				return n
			}
		}
	}
	return n
}

func firstDailyOnOrAfter(def model.TaskDefinition, from model.Date) model.Date {
	step := def.Recurrence.Step()
	days := def.StartDate.DaysUntil(from)
	if days <= 0 {
		return def.StartDate
	}
	k := (days + step - 1) / step
	return def.StartDate.AddDays(k * step)
}

// matchesBase applies the frequency rule alone, without end conditions.
func matchesBase(def model.TaskDefinition, date model.Date) bool {
	rule := def.Recurrence
	start := def.StartDate
	if start.IsZero() || date.Before(start) || rule.Validate() != nil {
		return false
	}
	step := rule.Step()

	switch rule.Frequency {
	case model.FrequencyNone:
		return date == start
	case model.FrequencyDaily:
		return start.DaysUntil(date)%step == 0
	case model.FrequencyWeekly:
		if !rule.HasWeekday(date.Weekday()) {
			return false
		}
		weeks := weekStart(start).DaysUntil(weekStart(date)) / 7
		return weeks%step == 0
	case model.FrequencyMonthly:
		if monthsBetween(start, date)%step != 0 {
			return false
		}
		dom := rule.DayOfMonth
		if dom == 0 {
			dom = start.Day
		}
		return date.Day == clampDay(date.Year, date.Month, dom)
	case model.FrequencyYearly:
		if (date.Year-start.Year)%step != 0 || date.Month != start.Month {
			return false
		}
		return date.Day == clampDay(date.Year, start.Month, start.Day)
	case model.FrequencyCustom:
		return matchesCustom(rule, start, date)
	default:
		return false
	}
}

func matchesCustom(rule model.RecurrenceRule, start, date model.Date) bool {
	wd := date.Weekday()
	switch rule.CustomPattern {
	case model.PatternWeekdays:
		return wd >= time.Monday && wd <= time.Friday
	case model.PatternWeekends:
		return wd == time.Saturday || wd == time.Sunday
	case model.PatternNthWeekday:
		if wd != start.Weekday() || monthsBetween(start, date)%rule.Step() != 0 {
			return false
		}
		return ordinalInMonth(date) == ordinalInMonth(start)
	case model.PatternLastWeekday:
		if wd != start.Weekday() || monthsBetween(start, date)%rule.Step() != 0 {
			return false
		}
		return date.Day+7 > model.DaysIn(date.Year, date.Month)
	default:
		return false
	}
}

func weekStart(d model.Date) model.Date {
	return d.AddDays(-int(d.Weekday()))
}

func monthsBetween(from, to model.Date) int {
	return (to.Year-from.Year)*12 + int(to.Month) - int(from.Month)
}

func ordinalInMonth(d model.Date) int {
	return (d.Day-1)/7 + 1
}

func clampDay(year int, month time.Month, day int) int {
	if last := model.DaysIn(year, month); day > last {
		return last
	}
	return day
}

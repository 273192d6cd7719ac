package scheduler

import (
	"cmp"
	"slices"

	"github.com/sandeepkv93/dayplan/internal/model"
)

// Materialization describes how a day's stored instances should change.
type Materialization struct {
	Keep   []model.TaskInstance
	Create []model.TaskInstance
	Drop   []model.TaskInstance
}

// Instances returns the day's instances after the change.
func (m Materialization) Instances() []model.TaskInstance {
	out := make([]model.TaskInstance, 0, len(m.Keep)+len(m.Create))
	out = append(out, m.Keep...)
	return append(out, m.Create...)
}

func (m Materialization) Changed() bool {
	return len(m.Create) > 0 || len(m.Drop) > 0
}

// Materialize keeps what the user has touched, adds a pending instance for
// every due definition without one, and drops untouched pending instances
// whose definition no longer occurs on date. It does not persist anything.
func (e *Engine) Materialize(defs []model.TaskDefinition, existing []model.TaskInstance, date model.Date, newID func() string) Materialization {
	byID := make(map[string]model.TaskDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	var out Materialization
	have := make(map[string]bool, len(existing))
	for _, inst := range existing {
		if inst.Date != date {
			continue
		}
		def, ok := byID[inst.TemplateID]
		stale := !ok || !def.Active || !e.recurrence.ShouldOccurOnDate(def, date)
		if stale && inst.Status == model.StatusPending && inst.ScheduledTimeOverride == nil {
			out.Drop = append(out.Drop, inst)
			continue
		}
		out.Keep = append(out.Keep, inst)
		have[inst.TemplateID] = true
	}

	for _, def := range e.recurrence.DueOn(defs, date) {
		if have[def.ID] {
			continue
		}
		have[def.ID] = true
		out.Create = append(out.Create, model.TaskInstance{
			ID:         newID(),
			TemplateID: def.ID,
			Date:       date,
			Status:     model.StatusPending,
		})
	}
	return out
}

// Join pairs instances with their definitions. Instances whose definition is
// gone come back as orphans and are left out of the day.
func Join(defs []model.TaskDefinition, instances []model.TaskInstance) ([]model.DayTask, []model.TaskInstance) {
	byID := make(map[string]model.TaskDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}
	tasks := make([]model.DayTask, 0, len(instances))
	var orphans []model.TaskInstance
	for _, inst := range instances {
		def, ok := byID[inst.TemplateID]
		if !ok {
			orphans = append(orphans, inst)
			continue
		}
		tasks = append(tasks, model.DayTask{Instance: inst, Definition: def})
	}
	slices.SortFunc(tasks, func(a, b model.DayTask) int { return cmp.Compare(a.ID(), b.ID()) })
	return tasks, orphans
}

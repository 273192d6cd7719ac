package update

import "github.com/sandeepkv93/dayplan/internal/model"

// upcoming previews the next occurrences of the selected block's template
// after the viewed day.
func (m Model) upcoming(blk model.ScheduledBlock) []model.Date {
	if m.deps.Recurrence == nil {
		return nil
	}
	task, ok := m.Tasks[blk.InstanceID]
	if !ok {
		return nil
	}
	return m.deps.Recurrence.Preview(task.Definition, m.Date.AddDays(1), m.deps.PreviewCount)
}

func (m Model) dependsOn(blk model.ScheduledBlock) string {
	task, ok := m.Tasks[blk.InstanceID]
	if !ok {
		return ""
	}
	return task.Definition.DependsOn
}

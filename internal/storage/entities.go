package storage

import "github.com/sandeepkv93/dayplan/internal/model"

type DefinitionListFilter struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

type InstanceListFilter struct {
	Date       *model.Date
	TemplateID string
	Status     model.InstanceStatus
	Limit      int
	Offset     int
}

// DayChanges is written in one transaction so a day is never half
// regenerated.
type DayChanges struct {
	Create []model.TaskInstance
	Delete []string
}

// SleepScope addresses either the stored default or one date's override.
type SleepScope struct {
	Date *model.Date
}

func DefaultSleepScope() SleepScope { return SleepScope{} }

func DateSleepScope(d model.Date) SleepScope { return SleepScope{Date: &d} }

func (s SleepScope) key() string {
	if s.Date == nil {
		return "default"
	}
	return s.Date.String()
}

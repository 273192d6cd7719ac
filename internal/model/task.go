package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidSchedulingType = errors.New("model: invalid scheduling type")
	ErrMissingFixedTime      = errors.New("model: fixed task requires fixed_time")
	ErrInvalidDuration       = errors.New("model: invalid task duration")
	ErrInvalidPriority       = errors.New("model: invalid task priority")
	ErrInvalidTimeWindow     = errors.New("model: invalid time window")
)

const (
	MinPriority = 1
	MaxPriority = 5
)

type SchedulingType string

const (
	SchedulingFixed    SchedulingType = "fixed"
	SchedulingFlexible SchedulingType = "flexible"
)

func (s SchedulingType) IsValid() bool {
	switch s {
	case SchedulingFixed, SchedulingFlexible:
		return true
	default:
		return false
	}
}

// TaskDefinition is a recurring or one-off template that instances are
// materialized from.
type TaskDefinition struct {
	ID                 string         `yaml:"id" json:"id"`
	Title              string         `yaml:"title" json:"title"`
	SchedulingType     SchedulingType `yaml:"scheduling_type" json:"scheduling_type"`
	FixedTime          *ClockTime     `yaml:"fixed_time,omitempty" json:"fixed_time,omitempty"`
	TimeWindow         TimeWindow     `yaml:"time_window,omitempty" json:"time_window,omitempty"`
	DurationMinutes    int            `yaml:"duration_minutes" json:"duration_minutes"`
	MinDurationMinutes int            `yaml:"min_duration_minutes,omitempty" json:"min_duration_minutes,omitempty"`
	Priority           int            `yaml:"priority" json:"priority"`
	IsMandatory        bool           `yaml:"mandatory" json:"mandatory"`
	DependsOn          string         `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Recurrence         RecurrenceRule `yaml:"recurrence" json:"recurrence"`
	StartDate          Date           `yaml:"start_date" json:"start_date"`
	Active             bool           `yaml:"active" json:"active"`
	CreatedAt          time.Time      `yaml:"-" json:"created_at"`
}

func (t TaskDefinition) IsFixed() bool {
	return t.SchedulingType == SchedulingFixed
}

func (t TaskDefinition) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: definition id is required")
	}
	if !t.SchedulingType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSchedulingType, t.SchedulingType)
	}
	if t.IsFixed() {
		if t.FixedTime == nil {
			return ErrMissingFixedTime
		}
		if *t.FixedTime < 0 || *t.FixedTime >= EndOfDay {
			return fmt.Errorf("%w: %d", ErrInvalidClock, *t.FixedTime)
		}
	} else if !t.TimeWindow.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTimeWindow, t.TimeWindow)
	}
	if t.DurationMinutes <= 0 || t.DurationMinutes > MinutesPerDay {
		return fmt.Errorf("%w: duration %d", ErrInvalidDuration, t.DurationMinutes)
	}
	if t.MinDurationMinutes < 0 || t.MinDurationMinutes > t.DurationMinutes {
		return fmt.Errorf("%w: min duration %d exceeds duration %d", ErrInvalidDuration, t.MinDurationMinutes, t.DurationMinutes)
	}
	if t.Priority < MinPriority || t.Priority > MaxPriority {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, t.Priority)
	}
	if t.DependsOn == t.ID {
		return errors.New("model: definition cannot depend on itself")
	}
	if t.StartDate.IsZero() {
		return errors.New("model: definition start_date is required")
	}
	return t.Recurrence.Validate()
}

// Normalized returns a copy that the scheduler can place without further
// checks. Bad durations and priorities are clamped, and a fixed definition
// without a time is demoted to a flexible anytime task.
func (t TaskDefinition) Normalized() TaskDefinition {
	out := t
	if out.IsFixed() && out.FixedTime == nil {
		out.SchedulingType = SchedulingFlexible
		out.TimeWindow = WindowAnytime
	}
	if !out.SchedulingType.IsValid() {
		out.SchedulingType = SchedulingFlexible
	}
	if !out.IsFixed() && !out.TimeWindow.IsValid() {
		out.TimeWindow = WindowAnytime
	}
	if out.DurationMinutes <= 0 {
		out.DurationMinutes = 1
	}
	if out.DurationMinutes > MinutesPerDay {
		out.DurationMinutes = MinutesPerDay
	}
	if out.MinDurationMinutes <= 0 || out.MinDurationMinutes > out.DurationMinutes {
		out.MinDurationMinutes = out.DurationMinutes
	}
	if out.Priority < MinPriority {
		out.Priority = MinPriority
	}
	if out.Priority > MaxPriority {
		out.Priority = MaxPriority
	}
	return out
}

package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidStatus = errors.New("model: invalid instance status")

type InstanceStatus string

const (
	StatusPending   InstanceStatus = "pending"
	StatusCompleted InstanceStatus = "completed"
	StatusSkipped   InstanceStatus = "skipped"
	StatusPostponed InstanceStatus = "postponed"
)

func (s InstanceStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusSkipped, StatusPostponed:
		return true
	default:
		return false
	}
}

// Placeable reports whether an instance in this status takes time on its day.
func (s InstanceStatus) Placeable() bool {
	return s == StatusPending || s == StatusCompleted
}

// TaskInstance is one definition materialized for one date.
type TaskInstance struct {
	ID                    string         `json:"id"`
	TemplateID            string         `json:"template_id"`
	Date                  Date           `json:"date"`
	Status                InstanceStatus `json:"status"`
	ScheduledTimeOverride *ClockTime     `json:"scheduled_time_override,omitempty"`
	UpdatedAt             time.Time      `json:"-"`
}

func (i TaskInstance) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return errors.New("model: instance id is required")
	}
	if strings.TrimSpace(i.TemplateID) == "" {
		return errors.New("model: instance template_id is required")
	}
	if i.Date.IsZero() {
		return errors.New("model: instance date is required")
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, i.Status)
	}
	if o := i.ScheduledTimeOverride; o != nil && (*o < 0 || *o >= EndOfDay) {
		return fmt.Errorf("%w: override %d", ErrInvalidClock, *o)
	}
	return nil
}

// DayTask joins an instance with the definition it was materialized from.
type DayTask struct {
	Instance   TaskInstance   `json:"instance"`
	Definition TaskDefinition `json:"definition"`
}

func (t DayTask) ID() string         { return t.Instance.ID }
func (t DayTask) TemplateID() string { return t.Instance.TemplateID }

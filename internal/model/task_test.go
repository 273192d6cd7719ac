package model

import (
	"errors"
	"testing"
	"time"
)

func validDefinition() TaskDefinition {
	at := NewClock(9, 0)
	return TaskDefinition{
		ID:                 "standup",
		Title:              "Daily standup",
		SchedulingType:     SchedulingFixed,
		FixedTime:          &at,
		DurationMinutes:    15,
		MinDurationMinutes: 10,
		Priority:           4,
		IsMandatory:        true,
		Recurrence:         RecurrenceRule{Frequency: FrequencyDaily, Interval: 1},
		StartDate:          NewDate(2026, time.February, 2),
		Active:             true,
	}
}

func TestDefinitionValidateSuccess(t *testing.T) {
	if err := validDefinition().Validate(); err != nil {
		t.Fatalf("expected valid definition, got error: %v", err)
	}
}

func TestDefinitionValidateFixedRequiresTime(t *testing.T) {
	def := validDefinition()
	def.FixedTime = nil
	if err := def.Validate(); !errors.Is(err, ErrMissingFixedTime) {
		t.Fatalf("expected ErrMissingFixedTime, got: %v", err)
	}
}

func TestDefinitionValidateInvalidEnums(t *testing.T) {
	def := validDefinition()
	def.SchedulingType = SchedulingType("Bad")
	if err := def.Validate(); !errors.Is(err, ErrInvalidSchedulingType) {
		t.Fatalf("expected ErrInvalidSchedulingType, got: %v", err)
	}

	def = validDefinition()
	def.SchedulingType = SchedulingFlexible
	def.TimeWindow = TimeWindow("night")
	if err := def.Validate(); !errors.Is(err, ErrInvalidTimeWindow) {
		t.Fatalf("expected ErrInvalidTimeWindow, got: %v", err)
	}

	def = validDefinition()
	def.Priority = 6
	if err := def.Validate(); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got: %v", err)
	}

	def = validDefinition()
	def.MinDurationMinutes = 30
	if err := def.Validate(); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got: %v", err)
	}

	def = validDefinition()
	def.Recurrence = RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1}
	if err := def.Validate(); !errors.Is(err, ErrInvalidRecurrenceRule) {
		t.Fatalf("expected ErrInvalidRecurrenceRule, got: %v", err)
	}
}

func TestDefinitionNormalized(t *testing.T) {
	def := validDefinition()
	def.FixedTime = nil
	def.MinDurationMinutes = 0
	def.Priority = 9

	got := def.Normalized()
	if got.SchedulingType != SchedulingFlexible || got.TimeWindow != WindowAnytime {
		t.Fatalf("expected demotion to flexible anytime, got %s/%s", got.SchedulingType, got.TimeWindow)
	}
	if got.MinDurationMinutes != got.DurationMinutes {
		t.Fatalf("expected min duration to default to duration, got %d", got.MinDurationMinutes)
	}
	if got.Priority != MaxPriority {
		t.Fatalf("expected priority clamp, got %d", got.Priority)
	}
	if def.SchedulingType != SchedulingFixed {
		t.Fatal("normalized must not mutate the receiver")
	}
}

func TestInstanceValidate(t *testing.T) {
	inst := TaskInstance{ID: "i-1", TemplateID: "standup", Date: NewDate(2026, 2, 9), Status: StatusPending}
	if err := inst.Validate(); err != nil {
		t.Fatalf("expected valid instance, got: %v", err)
	}
	inst.Status = InstanceStatus("done")
	if err := inst.Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got: %v", err)
	}
	if StatusSkipped.Placeable() || !StatusCompleted.Placeable() {
		t.Fatal("unexpected placeable statuses")
	}
}

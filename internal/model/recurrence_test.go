package model

import (
	"errors"
	"testing"
	"time"
)

func TestRecurrenceRuleValidate(t *testing.T) {
	cases := []struct {
		name string
		rule RecurrenceRule
		ok   bool
	}{
		{"none", RecurrenceRule{Frequency: FrequencyNone}, true},
		{"daily", RecurrenceRule{Frequency: FrequencyDaily, Interval: 2}, true},
		{"weekly", RecurrenceRule{Frequency: FrequencyWeekly, DaysOfWeek: []time.Weekday{time.Monday}}, true},
		{"weekly empty days", RecurrenceRule{Frequency: FrequencyWeekly}, false},
		{"weekly duplicate day", RecurrenceRule{Frequency: FrequencyWeekly, DaysOfWeek: []time.Weekday{time.Monday, time.Monday}}, false},
		{"monthly day 31", RecurrenceRule{Frequency: FrequencyMonthly, DayOfMonth: 31}, true},
		{"monthly day 32", RecurrenceRule{Frequency: FrequencyMonthly, DayOfMonth: 32}, false},
		{"custom without pattern", RecurrenceRule{Frequency: FrequencyCustom}, false},
		{"custom weekends", RecurrenceRule{Frequency: FrequencyCustom, CustomPattern: PatternWeekends}, true},
		{"negative interval", RecurrenceRule{Frequency: FrequencyDaily, Interval: -1}, false},
		{"unknown frequency", RecurrenceRule{Frequency: "hourly"}, false},
	}
	for _, tc := range cases {
		err := tc.rule.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: expected valid, got %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidRecurrenceRule) {
			t.Fatalf("%s: expected ErrInvalidRecurrenceRule, got %v", tc.name, err)
		}
	}
}

func TestRecurrenceRuleStepDefaultsToOne(t *testing.T) {
	if got := (RecurrenceRule{Frequency: FrequencyDaily}).Step(); got != 1 {
		t.Fatalf("expected step 1, got %d", got)
	}
}

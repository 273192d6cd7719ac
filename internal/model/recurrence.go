package model

import (
	"errors"
	"fmt"
	"time"
)

type Frequency string

const (
	FrequencyNone    Frequency = "none"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
	FrequencyCustom  Frequency = "custom"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly, FrequencyCustom:
		return true
	default:
		return false
	}
}

type CustomPattern string

const (
	PatternWeekdays    CustomPattern = "weekdays"
	PatternWeekends    CustomPattern = "weekends"
	PatternNthWeekday  CustomPattern = "nthWeekday"
	PatternLastWeekday CustomPattern = "lastWeekday"
)

func (p CustomPattern) IsValid() bool {
	switch p {
	case PatternWeekdays, PatternWeekends, PatternNthWeekday, PatternLastWeekday:
		return true
	default:
		return false
	}
}

var ErrInvalidRecurrenceRule = errors.New("model: invalid recurrence rule")

type RecurrenceRule struct {
	Frequency           Frequency      `yaml:"frequency" json:"frequency"`
	Interval            int            `yaml:"interval,omitempty" json:"interval,omitempty"`
	DaysOfWeek          []time.Weekday `yaml:"days_of_week,omitempty" json:"days_of_week,omitempty"`
	DayOfMonth          int            `yaml:"day_of_month,omitempty" json:"day_of_month,omitempty"`
	EndDate             *Date          `yaml:"end_date,omitempty" json:"end_date,omitempty"`
	EndAfterOccurrences int            `yaml:"end_after_occurrences,omitempty" json:"end_after_occurrences,omitempty"`
	CustomPattern       CustomPattern  `yaml:"custom_pattern,omitempty" json:"custom_pattern,omitempty"`
}

// Step returns the interval, treating unset values as 1.
func (r RecurrenceRule) Step() int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}

func (r RecurrenceRule) Validate() error {
	if !r.Frequency.IsValid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRecurrenceRule, r.Frequency)
	}
	if r.Interval < 0 {
		return fmt.Errorf("%w: interval %d", ErrInvalidRecurrenceRule, r.Interval)
	}
	if r.EndAfterOccurrences < 0 {
		return fmt.Errorf("%w: end_after_occurrences %d", ErrInvalidRecurrenceRule, r.EndAfterOccurrences)
	}
	switch r.Frequency {
	case FrequencyWeekly:
		if len(r.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: weekly rule needs days_of_week", ErrInvalidRecurrenceRule)
		}
		seen := make(map[time.Weekday]bool, len(r.DaysOfWeek))
		for _, d := range r.DaysOfWeek {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("%w: weekday %d out of range", ErrInvalidRecurrenceRule, d)
			}
			if seen[d] {
				return fmt.Errorf("%w: duplicate weekday %s", ErrInvalidRecurrenceRule, d)
			}
			seen[d] = true
		}
	case FrequencyMonthly:
		if r.DayOfMonth < 0 || r.DayOfMonth > 31 {
			return fmt.Errorf("%w: day_of_month %d", ErrInvalidRecurrenceRule, r.DayOfMonth)
		}
	case FrequencyCustom:
		if !r.CustomPattern.IsValid() {
			return fmt.Errorf("%w: unknown custom pattern %q", ErrInvalidRecurrenceRule, r.CustomPattern)
		}
	}
	return nil
}

// HasWeekday reports whether d is listed in DaysOfWeek.
func (r RecurrenceRule) HasWeekday(d time.Weekday) bool {
	for _, w := range r.DaysOfWeek {
		if w == d {
			return true
		}
	}
	return false
}

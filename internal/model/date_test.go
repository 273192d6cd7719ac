package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateAndArithmetic(t *testing.T) {
	d, err := ParseDate("2026-02-27")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if got := d.AddDays(2).String(); got != "2026-03-01" {
		t.Fatalf("unexpected date after add: %s", got)
	}
	if got := d.DaysUntil(NewDate(2026, time.March, 6)); got != 7 {
		t.Fatalf("unexpected day distance: %d", got)
	}
	if !d.Before(d.AddDays(1)) || d.After(d) {
		t.Fatal("unexpected ordering")
	}
	if _, err := ParseDate("2026-13-01"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDaysInMonth(t *testing.T) {
	if DaysIn(2026, time.February) != 28 || DaysIn(2028, time.February) != 29 {
		t.Fatal("unexpected february length")
	}
	if !IsLeapYear(2000) || IsLeapYear(2100) {
		t.Fatal("unexpected leap year rule")
	}
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:05")
	if err != nil {
		t.Fatalf("parse clock: %v", err)
	}
	if c.Minutes() != 545 || c.String() != "09:05" {
		t.Fatalf("unexpected clock: %d %s", c.Minutes(), c)
	}
	if c, err := ParseClock("24:00"); err != nil || c != EndOfDay {
		t.Fatalf("expected end of day sentinel, got %v %v", c, err)
	}
	for _, bad := range []string{"", "9", "25:00", "10:60", "aa:bb", "24:01"} {
		if _, err := ParseClock(bad); !errors.Is(err, ErrInvalidClock) {
			t.Fatalf("expected ErrInvalidClock for %q, got %v", bad, err)
		}
	}
}

func TestClassifyStartUsesStartOnly(t *testing.T) {
	if got := ClassifyStart(NewClock(11, 55).Minutes()); got != WindowMorning {
		t.Fatalf("expected morning, got %s", got)
	}
	if got := ClassifyStart(NewClock(12, 0).Minutes()); got != WindowAfternoon {
		t.Fatalf("expected afternoon, got %s", got)
	}
	if got := ClassifyStart(NewClock(23, 30).Minutes()); got != WindowAnytime {
		t.Fatalf("expected anytime, got %s", got)
	}
}

func TestSleepScheduleAwakeMinutes(t *testing.T) {
	s := SleepSchedule{Wake: NewClock(7, 0), Sleep: NewClock(23, 0)}
	if s.AwakeMinutes() != 16*60 {
		t.Fatalf("unexpected awake minutes: %d", s.AwakeMinutes())
	}
	late := SleepSchedule{Wake: NewClock(8, 0), Sleep: NewClock(1, 0)}
	if late.AwakeMinutes() != 17*60 {
		t.Fatalf("unexpected awake minutes past midnight: %d", late.AwakeMinutes())
	}
	if start, end := late.DaySpan(); start != 480 || end != MinutesPerDay {
		t.Fatalf("unexpected day span: %d-%d", start, end)
	}
}

func TestSeverityFor(t *testing.T) {
	if SeverityFor(true, true) != SeverityHigh || SeverityFor(true, false) != SeverityMedium || SeverityFor(false, false) != SeverityLow {
		t.Fatal("unexpected severity mapping")
	}
}

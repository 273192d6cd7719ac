package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	MinutesPerDay = 24 * 60
	EndOfDay      = ClockTime(MinutesPerDay)
)

var ErrInvalidClock = errors.New("model: invalid clock time")

// ClockTime is a naive wall-clock time as minutes since midnight.
type ClockTime int

func NewClock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClock parses "HH:MM". "24:00" is accepted as the end-of-day sentinel.
func ParseClock(raw string) (ClockTime, error) {
	v := strings.TrimSpace(raw)
	hh, mm, ok := strings.Cut(v, ":")
	if !ok || len(mm) != 2 || len(hh) == 0 || len(hh) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	if hour == 24 && minute == 0 {
		return EndOfDay, nil
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return NewClock(hour, minute), nil
}

func MustClock(raw string) ClockTime {
	c, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) Minutes() int { return int(c) }
func (c ClockTime) Hour() int    { return int(c) / 60 }
func (c ClockTime) Minute() int  { return int(c) % 60 }

func (c ClockTime) String() string {
	return FormatMinutes(int(c))
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// FormatMinutes renders minutes-of-day as HH:MM, clamped to 00:00..24:00.
func FormatMinutes(m int) string {
	if m < 0 {
		m = 0
	}
	if m > MinutesPerDay {
		m = MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

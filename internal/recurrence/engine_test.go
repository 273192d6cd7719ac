package recurrence

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/dayplan/internal/model"
)

func date(t *testing.T, raw string) model.Date {
	t.Helper()
	d, err := model.ParseDate(raw)
	require.NoError(t, err)
	return d
}

func def(t *testing.T, start string, rule model.RecurrenceRule) model.TaskDefinition {
	t.Helper()
	return model.TaskDefinition{
		ID:              "tpl",
		Title:           "task",
		SchedulingType:  model.SchedulingFlexible,
		TimeWindow:      model.WindowAnytime,
		DurationMinutes: 30,
		Priority:        3,
		Recurrence:      rule,
		StartDate:       date(t, start),
		Active:          true,
	}
}

func TestShouldOccurOnDate(t *testing.T) {
	end := model.NewDate(2026, time.February, 5)

	tests := []struct {
		name  string
		start string
		rule  model.RecurrenceRule
		on    string
		want  bool
	}{
		{"none on start", "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyNone}, "2026-02-01", true},
		{"none after start", "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyNone}, "2026-02-02", false},
		{"before start", "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily}, "2026-01-31", false},
		{"daily every day", "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily}, "2026-03-17", true},
		{"daily interval hit", "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 3}, "2026-02-07", true},
		{"daily interval miss", "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 3}, "2026-02-08", false},
		{"weekly same week", "2026-02-02", weekly(2, time.Monday, time.Wednesday), "2026-02-04", true},
		{"weekly off week", "2026-02-02", weekly(2, time.Monday, time.Wednesday), "2026-02-09", false},
		{"weekly on week", "2026-02-02", weekly(2, time.Monday, time.Wednesday), "2026-02-18", true},
		{"weekly wrong day", "2026-02-02", weekly(1, time.Monday), "2026-02-03", false},
		{"monthly clamp to feb 28", "2026-01-31", model.RecurrenceRule{Frequency: model.FrequencyMonthly, DayOfMonth: 31}, "2026-02-28", true},
		{"monthly clamp not feb 27", "2026-01-31", model.RecurrenceRule{Frequency: model.FrequencyMonthly, DayOfMonth: 31}, "2026-02-27", false},
		{"monthly clamp leap", "2028-01-31", model.RecurrenceRule{Frequency: model.FrequencyMonthly, DayOfMonth: 31}, "2028-02-29", true},
		{"monthly clamp leap not 28", "2028-01-31", model.RecurrenceRule{Frequency: model.FrequencyMonthly, DayOfMonth: 31}, "2028-02-28", false},
		{"monthly default start day", "2026-01-15", model.RecurrenceRule{Frequency: model.FrequencyMonthly}, "2026-04-15", true},
		{"monthly interval miss", "2026-01-15", model.RecurrenceRule{Frequency: model.FrequencyMonthly, Interval: 2}, "2026-02-15", false},
		{"yearly feb 29 rolls", "2028-02-29", model.RecurrenceRule{Frequency: model.FrequencyYearly}, "2029-02-28", true},
		{"yearly feb 29 leap", "2028-02-29", model.RecurrenceRule{Frequency: model.FrequencyYearly}, "2032-02-29", true},
		{"yearly feb 29 leap not 28", "2028-02-29", model.RecurrenceRule{Frequency: model.FrequencyYearly}, "2032-02-28", false},
		{"weekdays friday", "2026-02-01", custom(model.PatternWeekdays), "2026-02-13", true},
		{"weekdays saturday", "2026-02-01", custom(model.PatternWeekdays), "2026-02-14", false},
		{"weekends sunday", "2026-02-01", custom(model.PatternWeekends), "2026-02-15", true},
		{"second tuesday", "2026-02-10", custom(model.PatternNthWeekday), "2026-03-10", true},
		{"first tuesday is not second", "2026-02-10", custom(model.PatternNthWeekday), "2026-03-03", false},
		{"last tuesday", "2026-02-24", custom(model.PatternLastWeekday), "2026-03-31", true},
		{"fourth tuesday is not last in march", "2026-02-24", custom(model.PatternLastWeekday), "2026-03-24", false},
		{"end date inclusive", "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily, EndDate: &end}, "2026-02-05", true},
		{"after end date", "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily, EndDate: &end}, "2026-02-06", false},
		{"within occurrence limit", "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily, EndAfterOccurrences: 3}, "2026-02-03", true},
		{"past occurrence limit", "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily, EndAfterOccurrences: 3}, "2026-02-04", false},
		{"weekly occurrence limit", "2026-02-02", model.RecurrenceRule{Frequency: model.FrequencyWeekly, DaysOfWeek: []time.Weekday{time.Monday}, EndAfterOccurrences: 2}, "2026-02-16", false},
		{"invalid rule", "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyWeekly}, "2026-02-01", false},
		{"unknown frequency", "2026-02-01", model.RecurrenceRule{Frequency: "hourly"}, "2026-02-01", false},
	}

	engine := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.ShouldOccurOnDate(def(t, tt.start, tt.rule), date(t, tt.on))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShouldOccurOnDateIsDeterministic(t *testing.T) {
	engine := NewEngine()
	d := def(t, "2026-01-31", model.RecurrenceRule{Frequency: model.FrequencyMonthly, EndAfterOccurrences: 6})
	first := slices.Collect(engine.OccurrencesInRange(d, date(t, "2026-01-01"), date(t, "2026-12-31")))
	for range 5 {
		again := slices.Collect(engine.OccurrencesInRange(d, date(t, "2026-01-01"), date(t, "2026-12-31")))
		assert.Equal(t, first, again)
	}
	require.Len(t, first, 6)
	assert.Equal(t, "2026-02-28", first[1].String())
	assert.Equal(t, "2026-04-30", first[3].String())
}

func TestOccurrencesInRangeDailyStride(t *testing.T) {
	engine := NewEngine()
	d := def(t, "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 3})

	got := slices.Collect(engine.OccurrencesInRange(d, date(t, "2026-02-02"), date(t, "2026-02-13")))
	assert.Equal(t, []model.Date{
		date(t, "2026-02-04"),
		date(t, "2026-02-07"),
		date(t, "2026-02-10"),
		date(t, "2026-02-13"),
	}, got)
}

func TestOccurrencesInRangeCarriesLimitAcrossRangeStart(t *testing.T) {
	engine := NewEngine()
	d := def(t, "2026-02-02", model.RecurrenceRule{
		Frequency:           model.FrequencyWeekly,
		DaysOfWeek:          []time.Weekday{time.Monday, time.Wednesday},
		EndAfterOccurrences: 3,
	})

	got := slices.Collect(engine.OccurrencesInRange(d, date(t, "2026-02-05"), date(t, "2026-03-31")))
	assert.Equal(t, []model.Date{date(t, "2026-02-09")}, got)

	for day := range engine.OccurrencesInRange(d, date(t, "2026-01-01"), date(t, "2026-03-31")) {
		assert.True(t, engine.ShouldOccurOnDate(d, day), "range and point query disagree on %s", day)
	}
}

func TestOccurrencesInRangeStopsEarly(t *testing.T) {
	engine := NewEngine()
	d := def(t, "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily})

	var seen []model.Date
	for day := range engine.OccurrencesInRange(d, date(t, "2026-02-01"), date(t, "2030-01-01")) {
		seen = append(seen, day)
		if len(seen) == 2 {
			break
		}
	}
	assert.Len(t, seen, 2)
}

func TestOccurrencesInRangeEmpty(t *testing.T) {
	engine := NewEngine()
	d := def(t, "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily})

	assert.Empty(t, slices.Collect(engine.OccurrencesInRange(d, date(t, "2026-01-01"), date(t, "2026-01-31"))))
	assert.Empty(t, slices.Collect(engine.OccurrencesInRange(d, date(t, "2026-03-01"), date(t, "2026-02-01"))))

	bad := def(t, "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyCustom})
	assert.Empty(t, slices.Collect(engine.OccurrencesInRange(bad, date(t, "2026-02-01"), date(t, "2026-03-01"))))
}

func TestNewEngineHorizon(t *testing.T) {
	assert.Equal(t, DefaultHorizonYears, NewEngine().horizonYears)
	assert.Equal(t, DefaultHorizonYears, NewEngine(WithHorizonYears(0)).horizonYears)
	assert.Equal(t, 3, NewEngine(WithHorizonYears(3)).horizonYears)
}

func TestNextOccurrenceOnOrAfter(t *testing.T) {
	engine := NewEngine()

	monthly := def(t, "2026-01-31", model.RecurrenceRule{Frequency: model.FrequencyMonthly})
	next, ok := engine.NextOccurrenceOnOrAfter(monthly, date(t, "2026-02-01"))
	require.True(t, ok)
	assert.Equal(t, "2026-02-28", next.String())

	daily := def(t, "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 7})
	next, ok = engine.NextOccurrenceOnOrAfter(daily, date(t, "2026-02-09"))
	require.True(t, ok)
	assert.Equal(t, "2026-02-15", next.String())

	next, ok = engine.NextOccurrenceOnOrAfter(daily, date(t, "2025-12-01"))
	require.True(t, ok)
	assert.Equal(t, "2026-02-01", next.String())

	once := def(t, "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyNone})
	_, ok = engine.NextOccurrenceOnOrAfter(once, date(t, "2026-02-02"))
	assert.False(t, ok)

	end := date(t, "2026-02-03")
	ended := def(t, "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily, EndDate: &end})
	_, ok = engine.NextOccurrenceOnOrAfter(ended, date(t, "2026-02-04"))
	assert.False(t, ok)

	limited := def(t, "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily, EndAfterOccurrences: 2})
	_, ok = engine.NextOccurrenceOnOrAfter(limited, date(t, "2026-02-03"))
	assert.False(t, ok)
}

func TestPreview(t *testing.T) {
	engine := NewEngine()
	d := def(t, "2028-02-29", model.RecurrenceRule{Frequency: model.FrequencyYearly})

	got := engine.Preview(d, date(t, "2028-01-01"), 3)
	assert.Equal(t, []model.Date{
		date(t, "2028-02-29"),
		date(t, "2029-02-28"),
		date(t, "2030-02-28"),
	}, got)
	assert.Empty(t, engine.Preview(d, date(t, "2028-01-01"), 0))
}

func TestDueOn(t *testing.T) {
	engine := NewEngine()
	a := def(t, "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily})
	a.ID = "a"
	b := def(t, "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily})
	b.ID = "b"
	b.Active = false
	c := def(t, "2026-02-01", custom(model.PatternWeekends))
	c.ID = "c"
	d := def(t, "2026-02-01", model.RecurrenceRule{Frequency: model.FrequencyDaily})
	d.ID = "d"

	due := engine.DueOn([]model.TaskDefinition{d, a, b, c}, date(t, "2026-02-14"))
	ids := make([]string, 0, len(due))
	for _, x := range due {
		ids = append(ids, x.ID)
	}
	assert.Equal(t, []string{"d", "a", "c"}, ids)
}

func TestValidateDelegatesToRule(t *testing.T) {
	engine := NewEngine()
	err := engine.Validate(model.RecurrenceRule{Frequency: model.FrequencyWeekly})
	assert.ErrorIs(t, err, model.ErrInvalidRecurrenceRule)
	assert.NoError(t, engine.Validate(weekly(1, time.Friday)))
}

func weekly(interval int, days ...time.Weekday) model.RecurrenceRule {
	return model.RecurrenceRule{Frequency: model.FrequencyWeekly, Interval: interval, DaysOfWeek: days}
}

func custom(p model.CustomPattern) model.RecurrenceRule {
	return model.RecurrenceRule{Frequency: model.FrequencyCustom, CustomPattern: p}
}

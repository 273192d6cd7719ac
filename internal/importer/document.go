// Package importer loads task definitions from YAML files into the store.
package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/dayplan/internal/model"
)

var ErrInvalidDocument = errors.New("importer: invalid document")

// Document is the file format:
//
//	sleep: {wake: "07:00", sleep: "23:00"}
//	definitions:
//	  - id: standup
//	    title: Standup
//	    scheduling_type: fixed
//	    fixed_time: "09:30"
//	    duration_minutes: 15
//	    priority: 4
//	    recurrence: {frequency: weekly, days_of_week: [mon, tue, wed, thu, fri]}
//	    start_date: 2026-01-05
type Document struct {
	Sleep       *model.SleepSchedule `yaml:"sleep,omitempty"`
	Definitions []DefinitionDoc      `yaml:"definitions"`
}

type DefinitionDoc struct {
	ID                 string               `yaml:"id"`
	Title              string               `yaml:"title"`
	SchedulingType     model.SchedulingType `yaml:"scheduling_type"`
	FixedTime          *model.ClockTime     `yaml:"fixed_time,omitempty"`
	TimeWindow         model.TimeWindow     `yaml:"time_window,omitempty"`
	DurationMinutes    int                  `yaml:"duration_minutes"`
	MinDurationMinutes int                  `yaml:"min_duration_minutes,omitempty"`
	Priority           int                  `yaml:"priority"`
	Mandatory          bool                 `yaml:"mandatory"`
	DependsOn          string               `yaml:"depends_on,omitempty"`
	Recurrence         RuleDoc              `yaml:"recurrence"`
	StartDate          model.Date           `yaml:"start_date"`
	Active             *bool                `yaml:"active,omitempty"`
}

type RuleDoc struct {
	Frequency           model.Frequency     `yaml:"frequency"`
	Interval            int                 `yaml:"interval,omitempty"`
	DaysOfWeek          []string            `yaml:"days_of_week,omitempty"`
	DayOfMonth          int                 `yaml:"day_of_month,omitempty"`
	EndDate             *model.Date         `yaml:"end_date,omitempty"`
	EndAfterOccurrences int                 `yaml:"end_after_occurrences,omitempty"`
	CustomPattern       model.CustomPattern `yaml:"custom_pattern,omitempty"`
}

func LoadFile(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read import file: %w", err)
	}
	return Parse(bytes.NewReader(b))
}

func Parse(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, nil
		}
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

// Validate converts every entry and checks it. Ids must be unique within
// the document.
func (d Document) Validate() ([]model.TaskDefinition, error) {
	out := make([]model.TaskDefinition, 0, len(d.Definitions))
	seen := make(map[string]int, len(d.Definitions))
	var errs []error
	for i, doc := range d.Definitions {
		def, err := doc.Definition()
		if err == nil {
			err = def.Validate()
		}
		if err == nil {
			if first, dup := seen[def.ID]; dup {
				err = fmt.Errorf("duplicate id, first defined at definitions[%d]", first)
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: definitions[%d] %q: %w", ErrInvalidDocument, i, doc.ID, err))
			continue
		}
		seen[def.ID] = i
		out = append(out, def)
	}
	if d.Sleep != nil && d.Sleep.Wake == d.Sleep.Sleep {
		errs = append(errs, fmt.Errorf("%w: sleep wake and sleep are both %s", ErrInvalidDocument, d.Sleep.Wake))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Definition maps the entry onto the model. Omitted active means true.
func (d DefinitionDoc) Definition() (model.TaskDefinition, error) {
	days, err := parseWeekdays(d.Recurrence.DaysOfWeek)
	if err != nil {
		return model.TaskDefinition{}, err
	}
	active := true
	if d.Active != nil {
		active = *d.Active
	}
	window := d.TimeWindow
	if window == "" && d.SchedulingType == model.SchedulingFlexible {
		window = model.WindowAnytime
	}
	return model.TaskDefinition{
		ID:                 strings.TrimSpace(d.ID),
		Title:              d.Title,
		SchedulingType:     d.SchedulingType,
		FixedTime:          d.FixedTime,
		TimeWindow:         window,
		DurationMinutes:    d.DurationMinutes,
		MinDurationMinutes: d.MinDurationMinutes,
		Priority:           d.Priority,
		IsMandatory:        d.Mandatory,
		DependsOn:          strings.TrimSpace(d.DependsOn),
		Recurrence: model.RecurrenceRule{
			Frequency:           d.Recurrence.Frequency,
			Interval:            d.Recurrence.Interval,
			DaysOfWeek:          days,
			DayOfMonth:          d.Recurrence.DayOfMonth,
			EndDate:             d.Recurrence.EndDate,
			EndAfterOccurrences: d.Recurrence.EndAfterOccurrences,
			CustomPattern:       d.Recurrence.CustomPattern,
		},
		StartDate: d.StartDate,
		Active:    active,
	}, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// parseWeekdays accepts names or 0-6 with Sunday as 0.
func parseWeekdays(raw []string) ([]time.Weekday, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]time.Weekday, 0, len(raw))
	for _, r := range raw {
		v := strings.ToLower(strings.TrimSpace(r))
		if d, ok := weekdayNames[v]; ok {
			out = append(out, d)
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("unknown weekday %q", r)
		}
		out = append(out, time.Weekday(n))
	}
	return out, nil
}

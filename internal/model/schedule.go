package model

type ConflictKind string

const (
	ConflictTimeOverlap         ConflictKind = "time_overlap"
	ConflictDependencyViolation ConflictKind = "dependency_violation"
	ConflictMissingDependency   ConflictKind = "missing_dependency"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities so the worst can be picked with a plain comparison.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// SeverityFor maps how many of the involved tasks are mandatory to a severity.
func SeverityFor(mandatory ...bool) Severity {
	n := 0
	for _, m := range mandatory {
		if m {
			n++
		}
	}
	switch {
	case n > 0 && n == len(mandatory):
		return SeverityHigh
	case n > 0:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

type ConflictFlag struct {
	Kind            ConflictKind `json:"kind"`
	Severity        Severity     `json:"severity"`
	RelatedBlockIDs []string     `json:"related_block_ids,omitempty"`
	Message         string       `json:"message,omitempty"`
}

// ScheduledBlock is the engine's placement of one instance.
type ScheduledBlock struct {
	InstanceID      string         `json:"instance_id"`
	TemplateID      string         `json:"template_id"`
	Title           string         `json:"title"`
	Status          InstanceStatus `json:"status"`
	Start           int            `json:"start_minutes"`
	End             int            `json:"end_minutes"`
	DurationMinutes int            `json:"duration_minutes"`
	Window          TimeWindow     `json:"window"`
	Priority        int            `json:"priority"`
	Mandatory       bool           `json:"mandatory"`
	Fixed           bool           `json:"fixed"`
	Pinned          bool           `json:"pinned"`
	Crunched        bool           `json:"crunched"`
	OutsideWindow   bool           `json:"outside_window"`
	Conflicts       []ConflictFlag `json:"conflicts,omitempty"`
}

func (b ScheduledBlock) Overlaps(other ScheduledBlock) bool {
	return b.Start < other.End && other.Start < b.End
}

func (b ScheduledBlock) HasConflict(kind ConflictKind) bool {
	for _, c := range b.Conflicts {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// ScheduleConflict is a top-level, deduplicated view of a conflict.
type ScheduleConflict struct {
	Kind        ConflictKind `json:"kind"`
	Severity    Severity     `json:"severity"`
	InstanceIDs []string     `json:"instance_ids"`
	Message     string       `json:"message,omitempty"`
}

type ScheduleResult struct {
	Date             Date               `json:"date"`
	Blocks           []ScheduledBlock   `json:"blocks"`
	Conflicts        []ScheduleConflict `json:"conflicts"`
	ImpossibleDay    bool               `json:"impossible_day"`
	RequiredMinutes  int                `json:"required_minutes"`
	AvailableMinutes int                `json:"available_minutes"`
}

func (r ScheduleResult) Block(instanceID string) (ScheduledBlock, bool) {
	for _, b := range r.Blocks {
		if b.InstanceID == instanceID {
			return b, true
		}
	}
	return ScheduledBlock{}, false
}

// SleepSchedule bounds the waking day. A sleep time at or before the wake
// time means the user goes to bed after midnight.
type SleepSchedule struct {
	Wake  ClockTime `yaml:"wake" json:"wake"`
	Sleep ClockTime `yaml:"sleep" json:"sleep"`
}

func (s SleepSchedule) AwakeMinutes() int {
	if s.Sleep > s.Wake {
		return int(s.Sleep - s.Wake)
	}
	return MinutesPerDay - int(s.Wake) + int(s.Sleep)
}

// DaySpan returns the awake interval clipped to the calendar day.
func (s SleepSchedule) DaySpan() (start, end int) {
	if s.Sleep > s.Wake {
		return int(s.Wake), int(s.Sleep)
	}
	return int(s.Wake), MinutesPerDay
}

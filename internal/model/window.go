package model

type TimeWindow string

const (
	WindowMorning   TimeWindow = "morning"
	WindowAfternoon TimeWindow = "afternoon"
	WindowEvening   TimeWindow = "evening"
	WindowAnytime   TimeWindow = "anytime"
)

func (w TimeWindow) IsValid() bool {
	switch w {
	case WindowMorning, WindowAfternoon, WindowEvening, WindowAnytime:
		return true
	default:
		return false
	}
}

// Bounds returns the window as [start, end) minutes of day.
func (w TimeWindow) Bounds() (start, end int) {
	switch w {
	case WindowMorning:
		return 6 * 60, 12 * 60
	case WindowAfternoon:
		return 12 * 60, 18 * 60
	case WindowEvening:
		return 18 * 60, 23 * 60
	default:
		return 6 * 60, 23 * 60
	}
}

// ClassifyStart names the window a task belongs to by its start minute only;
// the end is ignored, so 11:55 for an hour is still morning.
func ClassifyStart(start int) TimeWindow {
	for _, w := range []TimeWindow{WindowMorning, WindowAfternoon, WindowEvening} {
		lo, hi := w.Bounds()
		if start >= lo && start < hi {
			return w
		}
	}
	return WindowAnytime
}

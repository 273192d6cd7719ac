package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Layout is the frame around the day and detail panes. Width is the
// terminal width, zero before the first resize.
type Layout struct {
	Title     string
	Context   []string
	Day       string
	Detail    string
	Status    string
	StatusErr bool
	Banner    string
	Keys      string
	Width     int
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const (
	dayPaneWidth    = 64
	detailPaneWidth = 48
	minDayPane      = 44
	minDetailPane   = 24
	// paneChrome is the border and padding columns of two panes.
	paneChrome = 8
)

// PaneWidths splits the terminal between the day pane and the detail pane,
// giving the day pane four sevenths.
func PaneWidths(total int) (day, detail int) {
	if total <= 0 {
		return dayPaneWidth, detailPaneWidth
	}
	usable := total - paneChrome
	day = max(usable*4/7, minDayPane)
	detail = max(usable-day, minDetailPane)
	return day, detail
}

func RenderLayout(l Layout) string {
	header := headerStyle.Render(l.Title)
	if len(l.Context) > 0 {
		header += mutedStyle.Render(" | " + strings.Join(l.Context, " | "))
	}
	dayW, detailW := PaneWidths(l.Width)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Width(dayW).Render(l.Day),
		panelStyle.Width(detailW).Render(l.Detail),
	)

	parts := []string{header, body}
	if l.Status != "" {
		style := statusStyle
		if l.StatusErr {
			style = errorStyle
		}
		parts = append(parts, style.Render(l.Status))
	}
	if l.Banner != "" {
		parts = append(parts, panelStyle.Render(l.Banner))
	}
	if l.Keys != "" {
		parts = append(parts, mutedStyle.Render(l.Keys))
	}
	return strings.Join(parts, "\n")
}

// RenderMarkdown renders md for a dark terminal, falling back to the source
// when glamour fails.
func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

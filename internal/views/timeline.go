package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/dayplan/internal/model"
)

// TimelineOptions tunes RenderTimeline. Now is minutes of day, or negative
// when the rendered date is not today.
type TimelineOptions struct {
	Sleep    model.SleepSchedule
	Now      int
	BarScale int
	Selected string
	NoColor  bool
}

var (
	fixedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	flexStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
	conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true)
)

// RenderTimeline draws one line per block in start order, with free gaps
// between them and the current time marked.
func RenderTimeline(res model.ScheduleResult, opts TimelineOptions) string {
	scale := opts.BarScale
	if scale <= 0 {
		scale = 15
	}
	paint := func(s lipgloss.Style, text string) string {
		if opts.NoColor {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	wake, bed := opts.Sleep.DaySpan()
	cursor := wake
	nowMarked := opts.Now < 0
	markNow := func(before int) {
		if !nowMarked && opts.Now < before {
			b.WriteString(paint(warnStyle, fmt.Sprintf("%s ── now ──", model.FormatMinutes(opts.Now))) + "\n")
			nowMarked = true
		}
	}

	if len(res.Blocks) == 0 {
		b.WriteString(paint(mutedStyle, "(nothing scheduled)") + "\n")
	}
	for _, blk := range res.Blocks {
		if blk.Start > cursor {
			markNow(cursor)
			b.WriteString(paint(mutedStyle, fmt.Sprintf("%s   free %s", model.FormatMinutes(cursor), humanMinutes(blk.Start-cursor))) + "\n")
		}
		markNow(blk.Start)
		b.WriteString(timelineLine(blk, scale, opts.Selected, paint) + "\n")
		if blk.End > cursor {
			cursor = blk.End
		}
	}
	if cursor < bed && len(res.Blocks) > 0 {
		markNow(cursor)
		b.WriteString(paint(mutedStyle, fmt.Sprintf("%s   free %s", model.FormatMinutes(cursor), humanMinutes(bed-cursor))) + "\n")
	}
	markNow(model.MinutesPerDay + 1)
	return strings.TrimSuffix(b.String(), "\n")
}

func timelineLine(blk model.ScheduledBlock, scale int, selected string, paint func(lipgloss.Style, string) string) string {
	width := blk.DurationMinutes / scale
	if width < 1 {
		width = 1
	}
	if width > 16 {
		width = 16
	}
	bar := strings.Repeat("█", width)

	style := flexStyle
	if blk.Fixed || blk.Pinned {
		style = fixedStyle
	}
	if blk.Status == model.StatusCompleted {
		style = doneStyle
	}
	title := blk.Title
	if title == "" {
		title = blk.TemplateID
	}

	var tags []string
	if blk.Fixed {
		tags = append(tags, "fixed")
	}
	if blk.Pinned && !blk.Fixed {
		tags = append(tags, "pinned")
	}
	if blk.Crunched {
		tags = append(tags, "crunched")
	}
	if blk.OutsideWindow {
		tags = append(tags, "outside "+string(blk.Window))
	}
	if blk.Status == model.StatusCompleted {
		tags = append(tags, "done")
	}
	tagText := ""
	if len(tags) > 0 {
		tagText = " [" + strings.Join(tags, ",") + "]"
	}

	marker := " "
	if selected != "" && selected == blk.InstanceID {
		marker = paint(cursorStyle, ">")
	}
	line := fmt.Sprintf("%s %s-%s %-16s %s%s",
		marker,
		model.FormatMinutes(blk.Start),
		model.FormatMinutes(blk.End),
		paint(style, bar),
		paint(style, title),
		tagText,
	)
	if len(blk.Conflicts) > 0 {
		line += " " + paint(conflictStyle, "!"+severityBadge(worstSeverity(blk.Conflicts)))
	}
	return line
}

// RenderSummary is a one-line overview of a result.
func RenderSummary(res model.ScheduleResult) string {
	parts := []string{
		fmt.Sprintf("%d blocks", len(res.Blocks)),
		fmt.Sprintf("%s required of %s awake", humanMinutes(res.RequiredMinutes), humanMinutes(res.AvailableMinutes)),
	}
	if n := len(res.Conflicts); n > 0 {
		parts = append(parts, fmt.Sprintf("%d conflicts", n))
	}
	line := strings.Join(parts, " | ")
	if res.ImpossibleDay {
		return errorStyle.Render("IMPOSSIBLE DAY: " + line)
	}
	return line
}

func humanMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	if m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}

func worstSeverity(flags []model.ConflictFlag) model.Severity {
	var worst model.Severity
	for _, f := range flags {
		if f.Severity.Rank() > worst.Rank() {
			worst = f.Severity
		}
	}
	return worst
}

func severityBadge(s model.Severity) string {
	switch s {
	case model.SeverityHigh:
		return "HIGH"
	case model.SeverityMedium:
		return "MED"
	default:
		return "LOW"
	}
}

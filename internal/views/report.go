package views

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/dayplan/internal/model"
)

// ReportMarkdown renders a schedule as a markdown document.
func ReportMarkdown(res model.ScheduleResult, sleep model.SleepSchedule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Plan for %s (%s)\n\n", res.Date, res.Date.Weekday())
	fmt.Fprintf(&b, "Awake %s to %s. %s required of %s available.\n\n",
		sleep.Wake, sleep.Sleep, humanMinutes(res.RequiredMinutes), humanMinutes(res.AvailableMinutes))
	if res.ImpossibleDay {
		b.WriteString("> **Impossible day:** mandatory tasks need more time than you are awake.\n\n")
	}

	if len(res.Blocks) == 0 {
		b.WriteString("_Nothing scheduled._\n")
	} else {
		b.WriteString("| Time | Task | Window | Priority | Notes |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, blk := range res.Blocks {
			fmt.Fprintf(&b, "| %s-%s | %s | %s | %d%s | %s |\n",
				model.FormatMinutes(blk.Start), model.FormatMinutes(blk.End),
				escapeCell(blockTitle(blk)), blk.Window, blk.Priority, mandatoryMark(blk.Mandatory),
				escapeCell(blockNotes(blk)))
		}
	}

	if len(res.Conflicts) > 0 {
		b.WriteString("\n## Conflicts\n\n")
		for _, c := range res.Conflicts {
			fmt.Fprintf(&b, "- **%s** %s: %s", strings.ToUpper(string(c.Severity)), c.Kind, strings.Join(conflictTitles(res, c.InstanceIDs), ", "))
			if c.Message != "" {
				fmt.Fprintf(&b, " (%s)", c.Message)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderReport is ReportMarkdown rendered for the terminal.
func RenderReport(res model.ScheduleResult, sleep model.SleepSchedule) string {
	return RenderMarkdown(ReportMarkdown(res, sleep))
}

func blockTitle(blk model.ScheduledBlock) string {
	if blk.Title != "" {
		return blk.Title
	}
	return blk.TemplateID
}

func blockNotes(blk model.ScheduledBlock) string {
	var notes []string
	if blk.Fixed {
		notes = append(notes, "fixed")
	} else if blk.Pinned {
		notes = append(notes, "pinned")
	}
	if blk.Crunched {
		notes = append(notes, "shortened")
	}
	if blk.OutsideWindow {
		notes = append(notes, "outside window")
	}
	if blk.Status == model.StatusCompleted {
		notes = append(notes, "done")
	}
	return strings.Join(notes, ", ")
}

func mandatoryMark(m bool) string {
	if m {
		return " (must)"
	}
	return ""
}

func conflictTitles(res model.ScheduleResult, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if blk, ok := res.Block(id); ok {
			out = append(out, blockTitle(blk))
			continue
		}
		out = append(out, id)
	}
	return out
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

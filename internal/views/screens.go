package views

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/dayplan/internal/model"
)

type DayPanelData struct {
	Date      model.Date
	Summary   string
	TableView string
	Timeline  string
	Mode      string
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

// BlockDetailData describes the selected block.
type BlockDetailData struct {
	Block     *model.ScheduledBlock
	Upcoming  []model.Date
	DependsOn string
}

func RenderDayPanel(data DayPanelData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "day: %s (%s)\n", data.Date, data.Date.Weekday())
	if data.Summary != "" {
		b.WriteString(data.Summary + "\n")
	}
	b.WriteString("actions: [j/k]select [h/l]day [t]today [v]view [/]cmd [?]help\n\n")
	if data.Mode == "timeline" {
		b.WriteString(data.Timeline)
	} else {
		b.WriteString(data.TableView)
	}
	return strings.TrimSpace(b.String())
}

func RenderBlockDetail(data BlockDetailData) string {
	blk := data.Block
	if blk == nil {
		return "details:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString("details:\n")
	fmt.Fprintf(&b, "title: %s\n", blockTitle(*blk))
	fmt.Fprintf(&b, "id: %s\n", blk.InstanceID)
	fmt.Fprintf(&b, "template: %s\n", blk.TemplateID)
	fmt.Fprintf(&b, "time: %s-%s (%s)\n", model.FormatMinutes(blk.Start), model.FormatMinutes(blk.End), humanMinutes(blk.DurationMinutes))
	fmt.Fprintf(&b, "window: %s\n", blk.Window)
	fmt.Fprintf(&b, "priority: %d", blk.Priority)
	if blk.Mandatory {
		b.WriteString(" mandatory")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "status: %s\n", blk.Status)
	if notes := blockNotes(*blk); notes != "" {
		fmt.Fprintf(&b, "notes: %s\n", notes)
	}
	if data.DependsOn != "" {
		fmt.Fprintf(&b, "after: %s\n", data.DependsOn)
	}
	if len(blk.Conflicts) > 0 {
		b.WriteString("conflicts:\n")
		for _, c := range blk.Conflicts {
			fmt.Fprintf(&b, "- [%s] %s", severityBadge(c.Severity), c.Kind)
			if c.Message != "" {
				fmt.Fprintf(&b, ": %s", c.Message)
			}
			b.WriteString("\n")
		}
	}
	if len(data.Upcoming) > 0 {
		b.WriteString("upcoming:\n")
		for _, d := range data.Upcoming {
			fmt.Fprintf(&b, "- %s %s\n", d, d.Weekday().String()[:3])
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n%s",
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

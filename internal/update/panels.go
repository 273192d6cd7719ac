package update

import (
	"fmt"

	"github.com/sandeepkv93/dayplan/internal/views"
)

func (m Model) renderDayPane() string {
	summary := views.RenderSummary(m.Result)
	if m.Loading {
		summary = m.loadSpinner.View() + " planning..."
	}
	if m.FromNow {
		summary += " | from now"
	}
	if m.Mode == ModeReport {
		return m.reportView.View()
	}
	now := -1
	if m.Date == m.today() {
		t := m.now()
		now = t.Hour()*60 + t.Minute()
	}
	return views.RenderDayPanel(views.DayPanelData{
		Date:      m.Date,
		Summary:   summary,
		TableView: m.dayTable.View(),
		Timeline:  views.RenderTimeline(m.Result, views.TimelineOptions{Sleep: m.Sleep, Now: now, Selected: m.SelectedID}),
		Mode:      string(m.Mode),
	})
}

func (m Model) renderDetailPane() string {
	blk, ok := m.currentBlock()
	if !ok {
		return views.RenderBlockDetail(views.BlockDetailData{})
	}
	return views.RenderBlockDetail(views.BlockDetailData{
		Block:     &blk,
		Upcoming:  m.upcoming(blk),
		DependsOn: m.dependsOn(blk),
	})
}

func (m Model) renderCommandPalette() string {
	if !m.Palette.Active {
		return ""
	}
	return "\n" + views.RenderCommandPalette(true, m.commandInput.Value())
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, fmt.Sprintf("%s: %s", n.Title, n.Body))
}

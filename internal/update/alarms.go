package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dayplan/internal/scheduler"
)

func waitForBoundaryCmd(ch <-chan scheduler.BoundaryEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return BoundaryMsg{Event: ev}
	}
}

// armAlarm queues the loaded plan's boundaries when it is today's plan.
func (m *Model) armAlarm() {
	if m.deps.Alarm == nil || m.Date != m.today() {
		return
	}
	if _, err := m.deps.Alarm.Arm(m.Result, m.now(), m.deps.Location); err != nil {
		m.Status = StatusBar{Text: fmt.Sprintf("alarm: %v", err), IsError: true}
	}
}

func (m *Model) onBoundary(ev scheduler.BoundaryEvent) {
	title := ev.Title
	if title == "" {
		title = ev.InstanceID
	}
	at := ev.At.In(m.deps.Location).Format("15:04")
	switch ev.Kind {
	case scheduler.BoundaryStart:
		m.notify("Starting", fmt.Sprintf("%s at %s", title, at), "info")
	case scheduler.BoundaryEnd:
		m.notify("Finished", fmt.Sprintf("%s ended at %s", title, at), "info")
	}
	m.Status = StatusBar{Text: m.Notifications[len(m.Notifications)-1].Body}
}

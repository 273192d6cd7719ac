package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dayplan/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadDayCmd(), m.loadSpinner.Tick}
	if m.deps.Alarm != nil {
		cmds = append(cmds, waitForBoundaryCmd(m.deps.Alarm.C()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == "ctrl+c" {
				m.Quitting = true
				return m, tea.Quit
			}
			return m.handlePaletteKey(typed)
		}

		switch typed.String() {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active"}
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown"}
			} else {
				m.Status = StatusBar{Text: "help hidden"}
			}
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
		return m.handleDayKey(typed)
	case spinner.TickMsg:
		if m.Loading {
			var cmd tea.Cmd
			m.loadSpinner, cmd = m.loadSpinner.Update(typed)
			return m, cmd
		}
	case tea.WindowSizeMsg:
		m.resize(typed.Width, typed.Height)
		return m, nil
	case DayLoadedMsg:
		return m.applyDayLoaded(typed), nil
	case ReloadMsg:
		return m.reload()
	case BoundaryMsg:
		m.onBoundary(typed.Event)
		if m.deps.Alarm != nil {
			return m, waitForBoundaryCmd(m.deps.Alarm.C())
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	status := m.Status.Text
	if status != "" && m.Status.IsError {
		status = "error: " + status
	}
	selected := m.SelectedID
	if selected == "" {
		selected = "-"
	}
	return views.RenderLayout(views.Layout{
		Title:     "dayplan",
		Context:   []string{m.Date.String(), "view: " + string(m.Mode), "selected: " + selected},
		Day:       m.renderDayPane(),
		Detail:    m.renderDetailPane() + m.renderCommandPalette() + m.renderHelpIfVisible(),
		Status:    status,
		StatusErr: m.Status.IsError,
		Banner:    m.renderNotificationsView(),
		Keys: fmt.Sprintf("j/k select | %s/%s day | %s today | %s view | %s/%s/%s status | / cmd | %s help | %s quit",
			m.Keys.PrevDay, m.Keys.NextDay, m.Keys.Today, m.Keys.Mode, m.Keys.Done, m.Keys.Skip, m.Keys.Postpone, m.Keys.Help, m.Keys.Quit),
		Width: m.Width,
	})
}

package update

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dayplan/internal/commands"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		_ = cmd
		m.Palette.Input = m.commandInput.Value()
	}
	return m, nil
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var handlers commands.Handlers
	if m.deps.Actions != nil {
		handlers = m.deps.Actions.Handlers(m.ctx, m.Date)
	}
	// Navigation works without a store.
	if handlers.Goto == nil {
		handlers.Goto = func(a commands.GotoArgs) (commands.Result, error) {
			to := a.From(m.Date)
			return commands.Result{Message: "showing " + to.String(), Date: to}, nil
		}
	}

	res, err := commands.Execute(cmd, handlers)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	m.notify("Command", res.Message, "info")
	if !res.Date.IsZero() {
		next, tcmd := m.gotoDate(res.Date)
		next.Status = m.Status
		return next, tcmd
	}
	return m.reload()
}

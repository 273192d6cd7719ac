package update

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/dayplan/internal/views"
)

// paletteUsage lists the command palette grammar, one command per line.
var paletteUsage = []string{
	"done|skip|postpone|reset <task>",
	"move <task> HH:MM",
	"unpin <task>",
	"goto today|tomorrow|+N|-N|YYYY-MM-DD",
	"next <template>",
	"sleep HH:MM HH:MM | sleep reset",
}

type helpKeyMap struct {
	global []key.Binding
	mode   []key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding {
	return append(append([]key.Binding{}, k.mode...), k.global...)
}

func (k helpKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.mode, k.global}
}

func bind(keys, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(keys), key.WithHelp(keys, desc))
}

func (m Model) helpKeys() helpKeyMap {
	k := m.Keys
	return helpKeyMap{
		global: []key.Binding{
			bind(k.PrevDay+"/"+k.NextDay, "day"),
			bind(k.Today, "today"),
			bind(k.Mode, "view"),
			bind(k.FromNow, "from now"),
			bind("/", "command"),
			bind(k.Help, "help"),
			bind(k.Quit, "quit"),
		},
		mode: m.modeBindings(),
	}
}

func (m Model) modeBindings() []key.Binding {
	k := m.Keys
	switch m.Mode {
	case ModeReport:
		return []key.Binding{bind("j/k", "scroll"), bind("pgup/pgdown", "page")}
	default:
		return []key.Binding{
			bind("j/k", "select"),
			bind(k.Done, "done"),
			bind(k.Skip, "skip"),
			bind(k.Postpone, "postpone"),
		}
	}
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return "\n" + m.renderHelpView()
}

func (m Model) renderHelpView() string {
	keys := m.helpKeys()
	lines := make([]string, 0, len(keys.mode)+len(paletteUsage)+1)
	for _, b := range keys.mode {
		h := b.Help()
		lines = append(lines, "- "+h.Key+": "+h.Desc)
	}
	lines = append(lines, "commands:")
	for _, u := range paletteUsage {
		lines = append(lines, "  "+u)
	}
	hm := m.helpModel
	hm.ShowAll = true
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: lines,
		HelpView: hm.View(keys),
	})
}

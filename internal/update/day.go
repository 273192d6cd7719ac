package update

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dayplan/internal/commands"
	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/views"
)

var errNotConfigured = errors.New("update: planner is not configured")

func (m Model) handleDayKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Mode == ModeReport {
		switch msg.String() {
		case "up", "k", "down", "j", "pgup", "pgdown":
			var cmd tea.Cmd
			m.reportView, cmd = m.reportView.Update(msg)
			return m, cmd
		}
	}
	switch msg.String() {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
		m.syncSelectedToCursor()
	case "down", "j":
		if m.Cursor < len(m.Result.Blocks)-1 {
			m.Cursor++
		}
		m.syncSelectedToCursor()
	case m.Keys.PrevDay, "left":
		return m.gotoDate(m.Date.AddDays(-1))
	case m.Keys.NextDay, "right":
		return m.gotoDate(m.Date.AddDays(1))
	case m.Keys.Today:
		return m.gotoDate(m.today())
	case m.Keys.Mode:
		m.Mode = nextMode(m.Mode)
		m.Status = StatusBar{Text: "view: " + string(m.Mode)}
	case m.Keys.FromNow:
		m.FromNow = !m.FromNow
		if m.FromNow {
			m.Status = StatusBar{Text: "planning from now"}
		} else {
			m.Status = StatusBar{Text: "planning whole day"}
		}
		return m.reload()
	case m.Keys.Done:
		return m.setSelectedStatus(model.StatusCompleted)
	case m.Keys.Skip:
		return m.setSelectedStatus(model.StatusSkipped)
	case m.Keys.Postpone:
		return m.setSelectedStatus(model.StatusPostponed)
	}
	return m, nil
}

func nextMode(cur Mode) Mode {
	switch cur {
	case ModeTable:
		return ModeTimeline
	case ModeTimeline:
		return ModeReport
	default:
		return ModeTable
	}
}

func (m Model) gotoDate(date model.Date) (Model, tea.Cmd) {
	if date != m.Date {
		m.Date = date
		m.Cursor = 0
		m.SelectedID = ""
	}
	return m.reload()
}

func (m Model) reload() (Model, tea.Cmd) {
	m.seq++
	m.Loading = true
	return m, tea.Batch(m.loadDayCmd(), m.loadSpinner.Tick)
}

func (m Model) setSelectedStatus(status model.InstanceStatus) (Model, tea.Cmd) {
	if m.SelectedID == "" {
		m.Status = StatusBar{Text: "no task selected", IsError: true}
		return m, nil
	}
	if m.deps.Actions == nil {
		m.Status = StatusBar{Text: "commands are not available", IsError: true}
		return m, nil
	}
	h := m.deps.Actions.Handlers(m.ctx, m.Date)
	res, err := commands.Execute(commands.Command{
		Type:   statusCommand(status),
		Status: &commands.StatusArgs{Target: m.SelectedID, Status: status},
	}, h)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	return m.reload()
}

func statusCommand(s model.InstanceStatus) commands.Type {
	switch s {
	case model.StatusCompleted:
		return commands.TypeDone
	case model.StatusSkipped:
		return commands.TypeSkip
	case model.StatusPostponed:
		return commands.TypePostpone
	default:
		return commands.TypeReset
	}
}

func (m Model) loadDayCmd() tea.Cmd {
	deps, ctx, date, seq := m.deps, m.ctx, m.Date, m.seq
	notBefore := 0
	if m.FromNow && date == m.today() {
		now := m.now()
		notBefore = now.Hour()*60 + now.Minute()
	}
	return func() tea.Msg {
		msg := DayLoadedMsg{Seq: seq, Date: date}
		if deps.Planner == nil || deps.Source == nil {
			msg.Err = errNotConfigured
			return msg
		}
		tasks, err := deps.Source.DayTasks(ctx, date)
		if err != nil {
			msg.Err = fmt.Errorf("load %s: %w", date, err)
			return msg
		}
		sleep, err := deps.Source.SleepSchedule(ctx, date)
		if err != nil {
			msg.Err = fmt.Errorf("load sleep for %s: %w", date, err)
			return msg
		}
		res, err := deps.Planner.Plan(ctx, date, notBefore)
		if err != nil {
			msg.Err = fmt.Errorf("plan %s: %w", date, err)
			return msg
		}
		msg.Tasks, msg.Sleep, msg.Result = tasks, sleep, res
		return msg
	}
}

func (m Model) applyDayLoaded(msg DayLoadedMsg) Model {
	if msg.Seq != m.seq || msg.Date != m.Date {
		return m
	}
	m.Loading = false
	if msg.Err != nil {
		m.LastError = msg.Err
		m.Status = StatusBar{Text: msg.Err.Error(), IsError: true}
		return m
	}
	m.Result = msg.Result
	m.Sleep = msg.Sleep
	m.Tasks = make(map[string]model.DayTask, len(msg.Tasks))
	for _, t := range msg.Tasks {
		m.Tasks[t.ID()] = t
	}

	// Keep the selection on the same instance when it is still planned.
	m.Cursor = 0
	for i, b := range m.Result.Blocks {
		if b.InstanceID == m.SelectedID {
			m.Cursor = i
			break
		}
	}
	m.syncSelectedToCursor()
	if m.Result.ImpossibleDay {
		m.notify("Plan", fmt.Sprintf("%s: mandatory tasks exceed awake time", m.Date), "error")
	}
	m.armAlarm()
	return m
}

func (m *Model) syncSelectedToCursor() {
	if blk, ok := m.currentBlock(); ok {
		m.SelectedID = blk.InstanceID
		return
	}
	m.SelectedID = ""
}

func (m Model) currentBlock() (model.ScheduledBlock, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Result.Blocks) {
		return model.ScheduledBlock{}, false
	}
	return m.Result.Blocks[m.Cursor], true
}

func (m *Model) syncBubbleData() {
	rows := make([]table.Row, 0, len(m.Result.Blocks))
	for _, b := range m.Result.Blocks {
		title := b.Title
		if title == "" {
			title = b.TemplateID
		}
		rows = append(rows, table.Row{
			model.FormatMinutes(b.Start) + "-" + model.FormatMinutes(b.End),
			title,
			string(b.Window),
			strconv.Itoa(b.Priority),
			blockFlags(b),
		})
	}
	m.dayTable.SetRows(rows)
	if len(rows) > 0 && m.Cursor < len(rows) {
		m.dayTable.SetCursor(m.Cursor)
	}

	m.commandInput.SetValue(m.Palette.Input)
	if m.Palette.Active {
		m.commandInput.Focus()
	} else {
		m.commandInput.Blur()
	}

	if m.Mode == ModeReport {
		m.reportView.SetContent(views.RenderReport(m.Result, m.Sleep))
	}
}

func blockFlags(b model.ScheduledBlock) string {
	var f []string
	if b.Status == model.StatusCompleted {
		f = append(f, "✓")
	}
	if b.Fixed {
		f = append(f, "F")
	} else if b.Pinned {
		f = append(f, "P")
	}
	if b.Mandatory {
		f = append(f, "M")
	}
	if b.Crunched {
		f = append(f, "C")
	}
	if b.OutsideWindow {
		f = append(f, "W")
	}
	if len(b.Conflicts) > 0 {
		f = append(f, "!")
	}
	return strings.Join(f, " ")
}

package update

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/dayplan/internal/commands"
	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
)

var fixedNow = time.Date(2026, time.February, 10, 8, 0, 0, 0, time.UTC)

type fakeSource struct {
	tasks map[model.Date][]model.DayTask
	err   error
}

func (f *fakeSource) DayTasks(_ context.Context, d model.Date) ([]model.DayTask, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tasks[d], nil
}

func (f *fakeSource) SleepSchedule(context.Context, model.Date) (model.SleepSchedule, error) {
	return model.SleepSchedule{Wake: model.NewClock(7, 0), Sleep: model.NewClock(23, 0)}, nil
}

type fakePlanner struct {
	notBefore []int
}

func (f *fakePlanner) Plan(_ context.Context, d model.Date, notBefore int) (model.ScheduleResult, error) {
	f.notBefore = append(f.notBefore, notBefore)
	return model.ScheduleResult{
		Date: d,
		Blocks: []model.ScheduledBlock{
			{InstanceID: "i1", TemplateID: "standup", Title: "Standup", Start: 570, End: 585, DurationMinutes: 15, Window: model.WindowMorning, Priority: 4, Fixed: true},
			{InstanceID: "i2", TemplateID: "review", Title: "Review", Start: 590, End: 620, DurationMinutes: 30, Window: model.WindowMorning, Priority: 3},
		},
	}, nil
}

type fakeActions struct {
	calls []commands.StatusArgs
	err   error
}

func (f *fakeActions) Handlers(_ context.Context, date model.Date) commands.Handlers {
	return commands.Handlers{
		Status: func(a commands.StatusArgs) (commands.Result, error) {
			if f.err != nil {
				return commands.Result{}, f.err
			}
			f.calls = append(f.calls, a)
			return commands.Result{Message: a.Target + " marked " + string(a.Status)}, nil
		},
		Goto: func(a commands.GotoArgs) (commands.Result, error) {
			to := a.From(date)
			return commands.Result{Message: "showing " + to.String(), Date: to}, nil
		},
	}
}

type fakePreview struct{}

func (fakePreview) Preview(_ model.TaskDefinition, from model.Date, count int) []model.Date {
	out := make([]model.Date, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, from.AddDays(i*7))
	}
	return out
}

func newTestModel() (Model, *fakePlanner, *fakeActions) {
	day := model.DateOf(fixedNow)
	planner := &fakePlanner{}
	actions := &fakeActions{}
	src := &fakeSource{tasks: map[model.Date][]model.DayTask{
		day: {
			{Instance: model.TaskInstance{ID: "i1", TemplateID: "standup", Date: day}, Definition: model.TaskDefinition{ID: "standup"}},
			{Instance: model.TaskInstance{ID: "i2", TemplateID: "review", Date: day}, Definition: model.TaskDefinition{ID: "review", DependsOn: "standup"}},
		},
	}}
	m := NewModel(context.Background(), Deps{
		Planner:      planner,
		Source:       src,
		Recurrence:   fakePreview{},
		Actions:      actions,
		Location:     time.UTC,
		Now:          func() time.Time { return fixedNow },
		PreviewCount: 2,
	})
	return m, planner, actions
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// loaded runs the model's own loader and feeds the result back.
func loaded(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.loadDayCmd()()
	next, _ := step(t, m, msg)
	return next
}

func TestNewModelDefaults(t *testing.T) {
	m, _, _ := newTestModel()
	if m.Date != model.NewDate(2026, time.February, 10) {
		t.Fatalf("expected today's date, got %s", m.Date)
	}
	if m.Mode != ModeTable {
		t.Fatalf("expected table mode, got %q", m.Mode)
	}
	if m.Keys.Quit != "q" {
		t.Fatalf("expected quit key q, got %q", m.Keys.Quit)
	}
}

func TestDayLoadedSelectsFirstBlock(t *testing.T) {
	m, _, _ := newTestModel()
	m = loaded(t, m)
	if m.Loading {
		t.Fatal("still loading")
	}
	if len(m.Result.Blocks) != 2 || m.SelectedID != "i1" {
		t.Fatalf("unexpected state: blocks=%d selected=%q", len(m.Result.Blocks), m.SelectedID)
	}

	m, _ = step(t, m, keyMsg("j"))
	if m.SelectedID != "i2" {
		t.Fatalf("expected i2 selected, got %q", m.SelectedID)
	}
	m, _ = step(t, m, keyMsg("j"))
	if m.SelectedID != "i2" {
		t.Fatalf("cursor should stop at the last block, got %q", m.SelectedID)
	}

	detail := m.renderDetailPane()
	if !strings.Contains(detail, "after: standup") || !strings.Contains(detail, "- 2026-02-18") {
		t.Fatalf("detail pane missing dependency or preview:\n%s", detail)
	}
}

func TestStaleLoadIgnored(t *testing.T) {
	m, _, _ := newTestModel()
	stale := m.loadDayCmd()().(DayLoadedMsg)

	m, _ = step(t, m, keyMsg("l"))
	m, _ = step(t, m, stale)
	if len(m.Result.Blocks) != 0 {
		t.Fatal("stale load for the previous day was applied")
	}
	if m.Date != model.NewDate(2026, time.February, 11) {
		t.Fatalf("expected next day, got %s", m.Date)
	}
}

func TestDayNavigation(t *testing.T) {
	m, _, _ := newTestModel()
	m, cmd := step(t, m, keyMsg("h"))
	if cmd == nil || !m.Loading {
		t.Fatal("expected a load after moving days")
	}
	if m.Date != model.NewDate(2026, time.February, 9) {
		t.Fatalf("expected previous day, got %s", m.Date)
	}
	m, _ = step(t, m, keyMsg("t"))
	if m.Date != model.NewDate(2026, time.February, 10) {
		t.Fatalf("expected today, got %s", m.Date)
	}
}

func TestModeCycle(t *testing.T) {
	m, _, _ := newTestModel()
	m = loaded(t, m)
	for _, want := range []Mode{ModeTimeline, ModeReport, ModeTable} {
		m, _ = step(t, m, keyMsg("v"))
		if m.Mode != want {
			t.Fatalf("expected %q, got %q", want, m.Mode)
		}
		if m.View() == "" {
			t.Fatalf("empty view in %q mode", m.Mode)
		}
	}
}

func TestFromNowPassesCurrentMinute(t *testing.T) {
	m, planner, _ := newTestModel()
	m, cmd := step(t, m, keyMsg("n"))
	if !m.FromNow || cmd == nil {
		t.Fatal("expected from-now toggle to reload")
	}
	_ = loaded(t, m)
	if got := planner.notBefore[len(planner.notBefore)-1]; got != 8*60 {
		t.Fatalf("notBefore = %d, want %d", got, 8*60)
	}
}

func TestQuickStatusKeys(t *testing.T) {
	m, _, actions := newTestModel()
	m, _ = step(t, m, keyMsg("d"))
	if !m.Status.IsError || len(actions.calls) != 0 {
		t.Fatal("status change without a selection should fail")
	}

	m = loaded(t, m)
	m, cmd := step(t, m, keyMsg("s"))
	if cmd == nil {
		t.Fatal("expected reload after status change")
	}
	if len(actions.calls) != 1 || actions.calls[0].Target != "i1" || actions.calls[0].Status != model.StatusSkipped {
		t.Fatalf("unexpected calls: %+v", actions.calls)
	}
	if m.Status.Text != "i1 marked skipped" {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}

	actions.err = errors.New("locked")
	m, _ = step(t, m, keyMsg("p"))
	if !m.Status.IsError || m.Status.Text != "locked" {
		t.Fatalf("expected error status, got %+v", m.Status)
	}
}

func TestPaletteGoto(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = step(t, m, keyMsg("/"))
	if !m.Palette.Active {
		t.Fatal("expected palette active")
	}
	m, _ = step(t, m, keyMsg("goto 2026-03-01"))
	m, cmd := step(t, m, keyMsg("enter"))
	if m.Palette.Active {
		t.Fatal("palette should close after enter")
	}
	if cmd == nil || m.Date != model.NewDate(2026, time.March, 1) {
		t.Fatalf("expected navigation to 2026-03-01, got %s", m.Date)
	}
	if m.Status.Text != "showing 2026-03-01" {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}
}

func TestPaletteErrors(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = step(t, m, keyMsg("/"))
	m, _ = step(t, m, keyMsg("frobnicate"))
	m, _ = step(t, m, keyMsg("enter"))
	if !m.Status.IsError || !strings.Contains(m.Status.Text, string(commands.ErrCodeUnknownCommand)) {
		t.Fatalf("expected unknown command error, got %+v", m.Status)
	}

	m, _ = step(t, m, keyMsg("/"))
	m, _ = step(t, m, keyMsg("next gym"))
	m, _ = step(t, m, keyMsg("enter"))
	if !m.Status.IsError || !strings.Contains(m.Status.Text, string(commands.ErrCodeHandlerMissing)) {
		t.Fatalf("expected missing handler error, got %+v", m.Status)
	}
}

func TestPaletteEscCloses(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = step(t, m, keyMsg("/"))
	m, _ = step(t, m, keyMsg("q"))
	if m.Quitting {
		t.Fatal("q inside the palette must not quit")
	}
	m, _ = step(t, m, keyMsg("esc"))
	if m.Palette.Active || m.Palette.Input != "" {
		t.Fatalf("palette not reset: %+v", m.Palette)
	}
}

func TestLoadErrorShown(t *testing.T) {
	m, _, _ := newTestModel()
	m.deps.Source = &fakeSource{err: errors.New("db closed")}
	m = loaded(t, m)
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "db closed") {
		t.Fatalf("expected load error, got %+v", m.Status)
	}
}

func TestBoundaryNotifies(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = step(t, m, BoundaryMsg{Event: scheduler.BoundaryEvent{
		InstanceID: "i1",
		Title:      "Standup",
		Kind:       scheduler.BoundaryStart,
		At:         time.Date(2026, time.February, 10, 9, 30, 0, 0, time.UTC),
	}})
	if m.Status.Text != "Standup at 09:30" {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}
	if len(m.Notifications) != 1 || m.Notifications[0].Title != "Starting" {
		t.Fatalf("unexpected notifications %+v", m.Notifications)
	}
}

func TestAlarmArmedForToday(t *testing.T) {
	m, _, _ := newTestModel()
	alarm := scheduler.NewAlarm(4)
	defer alarm.Stop()
	m.deps.Alarm = alarm
	m = loaded(t, m)
	if got := alarm.Pending(); got != 4 {
		t.Fatalf("expected 4 pending boundaries, got %d", got)
	}

	m, _ = step(t, m, keyMsg("l"))
	_ = loaded(t, m)
	if got := alarm.Pending(); got != 4 {
		t.Fatalf("other days must not re-arm, got %d pending", got)
	}
}

func TestUpdateQuit(t *testing.T) {
	m, _, _ := newTestModel()
	m, cmd := step(t, m, keyMsg("q"))
	if !m.Quitting || cmd == nil {
		t.Fatal("expected quit command")
	}
	if m.View() != "" {
		t.Fatal("expected empty view after quit")
	}
}

func TestWindowResize(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.Width != 120 || m.Height != 40 {
		t.Fatalf("size not recorded: %dx%d", m.Width, m.Height)
	}
	if m.reportView.Height != 32 {
		t.Fatalf("report height = %d, want 32", m.reportView.Height)
	}
	if m.View() == "" {
		t.Fatal("empty view after resize")
	}
}

func TestHelpFollowsMode(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = step(t, m, keyMsg("?"))
	if !m.HelpVisible {
		t.Fatal("expected help visible")
	}
	help := m.renderHelpView()
	if !strings.Contains(help, "- d: done") || !strings.Contains(help, "move <task> HH:MM") {
		t.Fatalf("table help missing bindings:\n%s", help)
	}

	m.Mode = ModeReport
	if help := m.renderHelpView(); !strings.Contains(help, "- j/k: scroll") || strings.Contains(help, "- d: done") {
		t.Fatalf("report help should list scroll keys only:\n%s", help)
	}

	m, _ = step(t, m, keyMsg("?"))
	if m.HelpVisible || m.renderHelpIfVisible() != "" {
		t.Fatal("expected help hidden")
	}
}

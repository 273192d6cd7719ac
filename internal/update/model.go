package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/dayplan/internal/commands"
	"github.com/sandeepkv93/dayplan/internal/model"
	"github.com/sandeepkv93/dayplan/internal/scheduler"
	"github.com/sandeepkv93/dayplan/internal/views"
)

type Mode string

const (
	ModeTable    Mode = "table"
	ModeTimeline Mode = "timeline"
	ModeReport   Mode = "report"
)

type Planner interface {
	Plan(ctx context.Context, date model.Date, notBefore int) (model.ScheduleResult, error)
}

type Source interface {
	DayTasks(ctx context.Context, date model.Date) ([]model.DayTask, error)
	SleepSchedule(ctx context.Context, date model.Date) (model.SleepSchedule, error)
}

type Previewer interface {
	Preview(def model.TaskDefinition, from model.Date, count int) []model.Date
}

type Actions interface {
	Handlers(ctx context.Context, date model.Date) commands.Handlers
}

// Deps are the services the browser reads from and writes through. Any of
// them may be nil in tests.
type Deps struct {
	Planner      Planner
	Source       Source
	Recurrence   Previewer
	Actions      Actions
	Alarm        *scheduler.Alarm
	Notifier     DesktopNotifier
	Location     *time.Location
	Now          func() time.Time
	PreviewCount int
	Desktop      bool
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	PrevDay  string
	NextDay  string
	Today    string
	Mode     string
	Done     string
	Skip     string
	Postpone string
	FromNow  string
	Help     string
	Quit     string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Model struct {
	Date          model.Date
	Mode          Mode
	Result        model.ScheduleResult
	Sleep         model.SleepSchedule
	Tasks         map[string]model.DayTask
	Cursor        int
	SelectedID    string
	FromNow       bool
	Loading       bool
	Palette       CommandPaletteState
	HelpVisible   bool
	Notifications []Notification
	Status        StatusBar
	Keys          GlobalKeyMap
	Quitting      bool
	LastError     error
	Width         int
	Height        int

	deps Deps
	ctx  context.Context
	// seq tags day loads so a slow load for a day the user already left
	// is ignored.
	seq int

	dayTable     table.Model
	commandInput textinput.Model
	helpModel    help.Model
	reportView   viewport.Model
	loadSpinner  spinner.Model
}

type DayLoadedMsg struct {
	Seq    int
	Date   model.Date
	Result model.ScheduleResult
	Sleep  model.SleepSchedule
	Tasks  []model.DayTask
	Err    error
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type BoundaryMsg struct {
	Event scheduler.BoundaryEvent
}

// ReloadMsg asks for the current day to be planned again, for example
// after a config change.
type ReloadMsg struct{}

func NewModel(ctx context.Context, deps Deps) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.PreviewCount <= 0 {
		deps.PreviewCount = 5
	}
	if deps.Notifier == nil {
		deps.Notifier = NoopDesktopNotifier{}
	}
	m := Model{
		Mode:  ModeTable,
		Tasks: make(map[string]model.DayTask),
		Keys: GlobalKeyMap{
			PrevDay:  "h",
			NextDay:  "l",
			Today:    "t",
			Mode:     "v",
			Done:     "d",
			Skip:     "s",
			Postpone: "p",
			FromNow:  "n",
			Help:     "?",
			Quit:     "q",
		},
		deps: deps,
		ctx:  ctx,
	}
	m.Date = m.today()
	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

func (m Model) now() time.Time {
	return m.deps.Now().In(m.deps.Location)
}

func (m Model) today() model.Date {
	return model.DateOf(m.now())
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "Time", Width: 11},
		{Title: "Task", Width: 22},
		{Title: "Window", Width: 9},
		{Title: "Pri", Width: 4},
		{Title: "Flags", Width: 10},
	}
	m.dayTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(14))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 40

	m.helpModel = help.New()
	m.reportView = viewport.New(62, 18)

	m.loadSpinner = spinner.New()
	m.loadSpinner.Spinner = spinner.Dot
}

// chromeRows is the header, the pane borders and the status and key lines.
const chromeRows = 8

func (m *Model) resize(width, height int) {
	m.Width, m.Height = width, height
	dayW, _ := views.PaneWidths(width)
	if rows := height - chromeRows; rows > 4 {
		m.dayTable.SetHeight(rows - 2)
		m.reportView.Height = rows
	}
	m.reportView.Width = dayW
	m.commandInput.Width = max(dayW/2, 20)
}

package tui

import (
	"context"
	"io"
	"time"

	"wwtpDashboard/internal/dashboard"
	"wwtpDashboard/internal/models/sensor"
	"wwtpDashboard/internal/models/task"
	"wwtpDashboard/internal/spreadsheet"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// View is the active tab.
type View int

const (
	ViewSensors View = iota
	ViewTrends
	ViewTasks
	ViewFiles
	ViewNotes
	viewCount
)

func (v View) String() string {
	switch v {
	case ViewSensors:
		return "Sensors"
	case ViewTrends:
		return "Trends"
	case ViewTasks:
		return "Tasks"
	case ViewFiles:
		return "Files"
	case ViewNotes:
		return "Notes"
	}
	return ""
}

type trendPreset struct {
	label string
	span  time.Duration
}

var trendPresets = []trendPreset{
	{"30m", 30 * time.Minute},
	{"60m", time.Hour},
	{"6h", 6 * time.Hour},
	{"12h", 12 * time.Hour},
	{"24h", 24 * time.Hour},
	{"3d", 72 * time.Hour},
	{"7d", 7 * 24 * time.Hour},
}

const defaultPreset = 4

type timeRange struct {
	start, end time.Time
}

// Data is the polled state the model renders.
type Data interface {
	Snapshot() dashboard.State
	Updates() <-chan struct{}
	Wake()
	WakeTasks()
	Reload()
}

// API is the part of the REST client the views call on demand.
type API interface {
	Series(ctx context.Context, tank sensor.Tank, start, end time.Time) (*dashboard.Series, error)
	CreateTask(ctx context.Context, draft dashboard.TaskDraft) (*task.Task, error)
	UpdateTask(ctx context.Context, id int64, changes dashboard.TaskChanges) (*task.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ImportTasks(ctx context.Context, filename string, r io.Reader) (int, error)
	ExportTasks(ctx context.Context, start, end string) (*spreadsheet.File, error)
	ExportSensors(ctx context.Context, tank sensor.Tank, start, end time.Time) (*spreadsheet.File, error)
}

// Notes persists the scratchpad.
type Notes interface {
	Load() (string, error)
	Save(text string) error
}

type Options struct {
	Timeout   time.Duration
	ExportDir string
	// Location is used to read and show dates typed by the operator.
	Location *time.Location
}

type updatedMsg struct{}

type seriesMsg struct {
	seq    int
	tank   string
	series *dashboard.Series
	err    error
}

type Model struct {
	data      Data
	api       API
	notes     Notes
	timeout   time.Duration
	exportDir string
	loc       *time.Location
	now       func() time.Time

	keys   KeyMap
	help   help.Model
	styles *Styles

	view       View
	tank       sensor.Tank
	metric     int
	cursor     int
	fileCursor int
	width      int
	height     int

	state      dashboard.State
	trend      *dashboard.Series
	trendErr   error
	trendFetch bool
	preset     int
	custom     *timeRange
	seriesSeq  int

	form     *form
	deleting *task.Task
	flash    string
	flashErr bool

	notepad    textarea.Model
	notesSaved string
}

func NewModel(data Data, api API, notes Notes, opts Options) *Model {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	pad := textarea.New()
	pad.Placeholder = "Shift notes..."
	pad.CharLimit = 20000
	pad.SetWidth(MaxWidth - 4)
	pad.SetHeight(14)
	pad.ShowLineNumbers = false

	m := &Model{
		data:      data,
		api:       api,
		notes:     notes,
		timeout:   opts.Timeout,
		exportDir: opts.ExportDir,
		loc:       opts.Location,
		now:       time.Now,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		styles:    NewStyles(TokyoNight),
		view:      ViewSensors,
		tank:      sensor.T500,
		preset:    defaultPreset,
		state:     data.Snapshot(),
		notepad:   pad,
	}

	if notes != nil {
		text, err := notes.Load()
		if err != nil {
			m.setFlash(err.Error(), true)
		}
		m.notepad.SetValue(text)
		m.notesSaved = text
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForUpdate(), m.fetchSeries())
}

func (m *Model) waitForUpdate() tea.Cmd {
	updates := m.data.Updates()
	return func() tea.Msg {
		<-updates
		return updatedMsg{}
	}
}

// trendRange is the window the trend chart shows.
func (m *Model) trendRange() (time.Time, time.Time) {
	if m.custom != nil {
		return m.custom.start, m.custom.end
	}
	end := m.now().UTC()
	return end.Add(-trendPresets[m.preset].span), end
}

func (m *Model) fetchSeries() tea.Cmd {
	if m.api == nil {
		return nil
	}
	m.seriesSeq++
	m.trendFetch = true
	seq, tank := m.seriesSeq, m.tank
	start, end := m.trendRange()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		s, err := m.api.Series(ctx, tank, start, end)
		return seriesMsg{seq: seq, tank: tank.Name, series: s, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.notepad.SetWidth(contentWidth(msg.Width) - 4)
		return m, nil

	case tea.FocusMsg:
		// terminal regained focus: refresh instead of waiting for the ticker
		m.data.Wake()
		return m, nil

	case updatedMsg:
		m.state = m.data.Snapshot()
		if n := len(m.visibleTasks()); m.cursor >= n {
			m.cursor = max(0, n-1)
		}
		return m, m.waitForUpdate()

	case seriesMsg:
		if msg.seq != m.seriesSeq || msg.tank != m.tank.Name {
			return m, nil
		}
		m.trendFetch = false
		m.trendErr = msg.err
		if msg.err == nil {
			m.trend = msg.series
		}
		return m, nil

	case taskSavedMsg:
		if msg.err != nil {
			m.setFlash(msg.verb+" failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setFlash("task "+msg.verb, false)
		m.data.WakeTasks()
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.setFlash("export failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setFlash("saved "+msg.path, false)
		return m, nil

	case importedMsg:
		if msg.err != nil {
			m.setFlash("import failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setFlash(importSummary(msg.inserted), false)
		m.data.WakeTasks()
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.form != nil:
			return m.updateForm(msg)
		case m.deleting != nil:
			return m.updateConfirmDelete(msg)
		case m.view == ViewNotes && m.notepad.Focused():
			return m.updateNotes(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.saveNotes()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.NextTab):
		m.switchView((m.view + 1) % viewCount)

	case key.Matches(msg, m.keys.PrevTab):
		m.switchView((m.view + viewCount - 1) % viewCount)

	case key.Matches(msg, m.keys.T500):
		return m, m.selectTank(sensor.T500)

	case key.Matches(msg, m.keys.T700):
		return m, m.selectTank(sensor.T700)

	case key.Matches(msg, m.keys.Metric):
		m.metric = (m.metric + 1) % len(m.tank.Metrics)

	case key.Matches(msg, m.keys.Up):
		if m.view == ViewFiles {
			m.fileCursor = max(0, m.fileCursor-1)
		} else if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.view == ViewFiles {
			m.fileCursor = min(len(fileActions)-1, m.fileCursor+1)
		} else if m.cursor < len(m.visibleTasks())-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Reload):
		m.data.Reload()
		return m, m.fetchSeries()

	default:
		return m, m.handleViewKey(msg)
	}
	return m, nil
}

// handleViewKey covers the keys that only mean something on one tab.
func (m *Model) handleViewKey(msg tea.KeyMsg) tea.Cmd {
	switch m.view {
	case ViewTrends:
		switch {
		case key.Matches(msg, m.keys.RangePrev):
			return m.stepPreset(-1)
		case key.Matches(msg, m.keys.RangeNext):
			return m.stepPreset(1)
		case key.Matches(msg, m.keys.Custom):
			m.openRangeForm()
			return textinput.Blink
		}

	case ViewTasks:
		selected := m.selectedTask()
		switch {
		case key.Matches(msg, m.keys.New):
			m.openTaskForm(nil)
			return textinput.Blink
		case key.Matches(msg, m.keys.Edit) && selected != nil:
			m.openTaskForm(selected)
			return textinput.Blink
		case key.Matches(msg, m.keys.Delete) && selected != nil:
			m.deleting = selected
		case key.Matches(msg, m.keys.Status) && selected != nil:
			return m.advanceStatus(selected)
		}

	case ViewFiles:
		if key.Matches(msg, m.keys.Select) {
			m.openFileAction(fileActions[m.fileCursor])
			return textinput.Blink
		}

	case ViewNotes:
		if key.Matches(msg, m.keys.Select) {
			return m.notepad.Focus()
		}
	}
	return nil
}

func (m *Model) switchView(v View) {
	if m.view == ViewNotes {
		m.saveNotes()
	}
	m.view = v
}

func (m *Model) selectTank(tank sensor.Tank) tea.Cmd {
	if tank.Name == m.tank.Name {
		return nil
	}
	m.tank = tank
	m.metric = 0
	m.trend = nil
	m.trendErr = nil
	return m.fetchSeries()
}

// stepPreset moves through the preset windows. From a custom range it
// returns to the default preset first.
func (m *Model) stepPreset(step int) tea.Cmd {
	switch {
	case m.custom != nil:
		m.custom = nil
		m.preset = defaultPreset
	default:
		next := min(max(m.preset+step, 0), len(trendPresets)-1)
		if next == m.preset {
			return nil
		}
		m.preset = next
	}
	m.trend = nil
	return m.fetchSeries()
}

func (m *Model) selectedTask() *task.Task {
	visible := m.visibleTasks()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return nil
	}
	t := visible[m.cursor]
	return &t
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash, m.flashErr = text, isErr
}

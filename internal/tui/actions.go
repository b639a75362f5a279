package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wwtpDashboard/internal/dashboard"
	"wwtpDashboard/internal/models/sensor"
	"wwtpDashboard/internal/models/task"
	"wwtpDashboard/internal/spreadsheet"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	inputDateLayout     = "2006-01-02"
	inputDateTimeLayout = "2006-01-02 15:04"
)

var errPicRequired = errors.New("PIC lapangan is required when a task is done")

type taskSavedMsg struct {
	verb string
	err  error
}

type exportedMsg struct {
	path string
	err  error
}

type importedMsg struct {
	inserted int
	err      error
}

type fileAction struct {
	label string
	kind  formKind
	tank  sensor.Tank
}

var fileActions = []fileAction{
	{label: "Export tasks", kind: formExportTasks},
	{label: "Export T500 readings", kind: formExportSensors, tank: sensor.T500},
	{label: "Export T700 readings", kind: formExportSensors, tank: sensor.T700},
	{label: "Import tasks from a workbook", kind: formImportTasks},
}

func importSummary(n int) string {
	if n == 1 {
		return "imported 1 task"
	}
	return fmt.Sprintf("imported %d tasks", n)
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.form = nil
		return m, nil
	case key.Matches(msg, m.keys.Save):
		return m, m.submitForm()
	}
	return m, m.form.update(msg)
}

func (m *Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		id := m.deleting.ID
		m.deleting = nil
		return m, m.deleteTask(id)
	case "n", "N", "esc":
		m.deleting = nil
	}
	return m, nil
}

func (m *Model) updateNotes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.notepad.Blur()
		m.saveNotes()
		return m, nil
	case key.Matches(msg, m.keys.Save):
		m.saveNotes()
		return m, nil
	}
	var cmd tea.Cmd
	m.notepad, cmd = m.notepad.Update(msg)
	return m, cmd
}

func (m *Model) saveNotes() {
	if m.notes == nil {
		return
	}
	text := m.notepad.Value()
	if text == m.notesSaved {
		return
	}
	if err := m.notes.Save(text); err != nil {
		m.setFlash(err.Error(), true)
		return
	}
	m.notesSaved = text
	m.setFlash("notes saved", false)
}

func (m *Model) openTaskForm(t *task.Task) {
	if t == nil {
		pic := textField("PIC", "PIC lapangan", "", 100)
		pic.visible = picVisible
		m.form = newForm(formNewTask, "New task",
			textField("Title", "Task title", "", 200),
			textField("Description", "Description", "", 1000),
			textField("Due date", "YYYY-MM-DD", "", 10),
			statusField(task.StatusTodo),
			pic,
		)
		return
	}

	due := ""
	if t.DueDate != nil {
		due = t.DueDate.In(m.loc).Format(inputDateLayout)
	}
	pic := textField("PIC", "PIC lapangan", deref(t.PicLapangan), 100)
	pic.visible = picVisible
	m.form = newForm(formEditTask, "Edit task",
		textField("Title", "Task title", t.Title, 200),
		textField("Description", "Description", deref(t.Description), 1000),
		textField("Due date", "YYYY-MM-DD", due, 10),
		statusField(t.Status),
		pic,
	)
	m.form.taskID = t.ID
}

// advanceStatus moves a task to the next status. Moving to done asks for
// the field PIC first.
func (m *Model) advanceStatus(t *task.Task) tea.Cmd {
	next := statusChoices[0]
	for i, s := range statusChoices {
		if s == string(t.Status) {
			next = statusChoices[(i+1)%len(statusChoices)]
		}
	}

	if next == string(task.StatusDone) {
		m.form = newForm(formCompleteTask, "Complete: "+t.Title,
			textField("PIC", "PIC lapangan", deref(t.PicLapangan), 100))
		m.form.taskID = t.ID
		return textinput.Blink
	}
	return m.updateTask(t.ID, dashboard.TaskChanges{Status: task.Some(next)})
}

func (m *Model) openRangeForm() {
	start, end := m.trendRange()
	m.form = newForm(formTrendRange, "Custom range",
		textField("Start", "YYYY-MM-DD HH:MM", start.In(m.loc).Format(inputDateTimeLayout), 16),
		textField("End", "YYYY-MM-DD HH:MM", end.In(m.loc).Format(inputDateTimeLayout), 16),
	)
}

func (m *Model) openFileAction(a fileAction) {
	today := m.now().In(m.loc)
	day := today.Format(inputDateLayout)

	switch a.kind {
	case formExportTasks:
		m.form = newForm(a.kind, a.label,
			textField("Start", "YYYY-MM-DD", day, 10),
			textField("End", "YYYY-MM-DD", day, 10),
		)
	case formExportSensors:
		m.form = newForm(a.kind, a.label,
			textField("Start", "YYYY-MM-DD HH:MM", day+" 00:01", 16),
			textField("End", "YYYY-MM-DD HH:MM", day+" 23:59", 16),
		)
		m.form.tank = a.tank
	case formImportTasks:
		m.form = newForm(a.kind, a.label,
			textField("File", "path/to/plan.xlsx", "", 500),
		)
	}
}

// submitForm validates the open form. An invalid form stays open with its
// error; a valid one closes and returns the command that performs it.
func (m *Model) submitForm() tea.Cmd {
	f := m.form
	cmd, err := m.formCommand(f)
	if err != nil {
		f.err = err.Error()
		return nil
	}
	m.form = nil
	return cmd
}

func (m *Model) formCommand(f *form) (tea.Cmd, error) {
	switch f.kind {
	case formNewTask, formEditTask:
		return m.taskFormCommand(f)

	case formCompleteTask:
		pic := f.value("PIC")
		if pic == "" {
			return nil, errPicRequired
		}
		return m.updateTask(f.taskID, dashboard.TaskChanges{
			Status:      task.Some(string(task.StatusDone)),
			PicLapangan: task.Some(pic),
		}), nil

	case formTrendRange:
		start, end, err := m.parseRange(f, inputDateTimeLayout)
		if err != nil {
			return nil, err
		}
		if !start.Before(end) {
			return nil, errors.New("start must be before end")
		}
		m.custom = &timeRange{start: start.UTC(), end: end.UTC()}
		m.trend = nil
		return m.fetchSeries(), nil

	case formExportTasks:
		start, end, err := m.parseRange(f, inputDateLayout)
		if err != nil {
			return nil, err
		}
		if end.Before(start) {
			return nil, errors.New("end date is before start date")
		}
		return m.export(func(ctx context.Context) (*spreadsheet.File, error) {
			return m.api.ExportTasks(ctx, f.value("Start"), f.value("End"))
		}), nil

	case formExportSensors:
		start, end, err := m.parseRange(f, inputDateTimeLayout)
		if err != nil {
			return nil, err
		}
		if end.Before(start) {
			return nil, errors.New("end is before start")
		}
		tank := f.tank
		return m.export(func(ctx context.Context) (*spreadsheet.File, error) {
			return m.api.ExportSensors(ctx, tank, start, end)
		}), nil

	case formImportTasks:
		path := f.value("File")
		if path == "" {
			return nil, errors.New("file path is required")
		}
		return m.importTasks(path), nil
	}
	return nil, nil
}

func (m *Model) taskFormCommand(f *form) (tea.Cmd, error) {
	title := f.value("Title")
	if title == "" {
		return nil, errors.New("title is required")
	}
	due := f.value("Due date")
	if due != "" {
		if _, err := time.ParseInLocation(inputDateLayout, due, m.loc); err != nil {
			return nil, errors.New("due date must be YYYY-MM-DD")
		}
	}
	status := f.value("Status")
	pic := f.value("PIC")
	if status == string(task.StatusDone) && pic == "" {
		return nil, errPicRequired
	}

	if f.kind == formNewTask {
		return m.createTask(dashboard.TaskDraft{
			Title:       title,
			Description: nonEmpty(f.value("Description")),
			DueDate:     nonEmpty(due),
			Status:      status,
			PicLapangan: nonEmpty(pic),
		}), nil
	}
	return m.updateTask(f.taskID, dashboard.TaskChanges{
		Title:       task.Some(title),
		Description: optional(f.value("Description")),
		DueDate:     optional(due),
		Status:      task.Some(status),
		PicLapangan: optional(pic),
	}), nil
}

func (m *Model) parseRange(f *form, layout string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(layout, f.value("Start"), m.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start must be %s", layoutHint(layout))
	}
	end, err := time.ParseInLocation(layout, f.value("End"), m.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end must be %s", layoutHint(layout))
	}
	return start, end, nil
}

func layoutHint(layout string) string {
	if layout == inputDateLayout {
		return "YYYY-MM-DD"
	}
	return "YYYY-MM-DD HH:MM"
}

func (m *Model) createTask(draft dashboard.TaskDraft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		_, err := m.api.CreateTask(ctx, draft)
		return taskSavedMsg{verb: "created", err: err}
	}
}

func (m *Model) updateTask(id int64, changes dashboard.TaskChanges) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		updated, err := m.api.UpdateTask(ctx, id, changes)
		if err == nil && updated == nil {
			err = fmt.Errorf("task %d no longer exists", id)
		}
		return taskSavedMsg{verb: "updated", err: err}
	}
}

func (m *Model) deleteTask(id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		return taskSavedMsg{verb: "deleted", err: m.api.DeleteTask(ctx, id)}
	}
}

// export downloads a workbook and writes it under the export directory.
func (m *Model) export(fetch func(context.Context) (*spreadsheet.File, error)) tea.Cmd {
	dir := m.exportDir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		file, err := fetch(ctx)
		if err != nil {
			return exportedMsg{err: err}
		}
		path := filepath.Join(dir, filepath.Base(file.Filename))
		if err := os.WriteFile(path, file.Data, 0o644); err != nil {
			return exportedMsg{err: err}
		}
		return exportedMsg{path: path}
	}
}

func (m *Model) importTasks(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importedMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		n, err := m.api.ImportTasks(ctx, filepath.Base(path), f)
		return importedMsg{inserted: n, err: err}
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optional(s string) task.Optional[string] {
	if s == "" {
		return task.Null[string]()
	}
	return task.Some(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package tui

import (
	"strings"

	"wwtpDashboard/internal/models/sensor"
	"wwtpDashboard/internal/models/task"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formKind int

const (
	formNewTask formKind = iota
	formEditTask
	formCompleteTask
	formExportTasks
	formExportSensors
	formImportTasks
	formTrendRange
)

// field is one row of a form. A field with choices is a selector cycled
// with left/right instead of a text input.
type field struct {
	label   string
	input   textinput.Model
	choices []string
	choice  int
	visible func(*form) bool
}

func (f *field) value() string {
	if f.choices != nil {
		return f.choices[f.choice]
	}
	return strings.TrimSpace(f.input.Value())
}

type form struct {
	kind   formKind
	title  string
	fields []*field
	focus  int
	err    string

	taskID int64
	tank   sensor.Tank
}

func newInput(placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.SetValue(value)
	return in
}

func textField(label, placeholder, value string, limit int) *field {
	return &field{label: label, input: newInput(placeholder, value, limit)}
}

var statusChoices = []string{
	string(task.StatusTodo),
	string(task.StatusInProgress),
	string(task.StatusDone),
	string(task.StatusBlocked),
}

func statusField(current task.Status) *field {
	f := &field{label: "Status", choices: statusChoices}
	for i, s := range statusChoices {
		if s == string(current) {
			f.choice = i
		}
	}
	return f
}

// picVisible shows the PIC field only while the status selector is on done.
func picVisible(f *form) bool {
	status := f.find("Status")
	return status != nil && status.value() == string(task.StatusDone)
}

func newForm(kind formKind, title string, fields ...*field) *form {
	f := &form{kind: kind, title: title, fields: fields}
	f.updateFocus()
	return f
}

func (f *form) find(label string) *field {
	for _, fld := range f.fields {
		if fld.label == label {
			return fld
		}
	}
	return nil
}

func (f *form) value(label string) string {
	if fld := f.find(label); fld != nil && f.shown(fld) {
		return fld.value()
	}
	return ""
}

func (f *form) shown(fld *field) bool {
	return fld.visible == nil || fld.visible(f)
}

func (f *form) move(step int) {
	n := len(f.fields)
	for range n {
		f.focus = (f.focus + step + n) % n
		if f.shown(f.fields[f.focus]) {
			break
		}
	}
	f.updateFocus()
}

func (f *form) updateFocus() {
	for i, fld := range f.fields {
		if fld.choices != nil {
			continue
		}
		if i == f.focus {
			fld.input.Focus()
		} else {
			fld.input.Blur()
		}
	}
}

func (f *form) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		f.move(1)
		return nil
	case "shift+tab", "up":
		f.move(-1)
		return nil
	}

	fld := f.fields[f.focus]
	if fld.choices != nil {
		switch msg.String() {
		case "right", "l", " ":
			fld.choice = (fld.choice + 1) % len(fld.choices)
		case "left", "h":
			fld.choice = (fld.choice + len(fld.choices) - 1) % len(fld.choices)
		}
		return nil
	}

	var cmd tea.Cmd
	fld.input, cmd = fld.input.Update(msg)
	return cmd
}

func (m *Model) formView(f *form) string {
	lines := []string{m.styles.CardTitle.Render(f.title), ""}
	for i, fld := range f.fields {
		if !f.shown(fld) {
			continue
		}
		label := m.styles.Muted.Render(lipgloss.NewStyle().Width(12).Render(fld.label))
		var value string
		if fld.choices != nil {
			value = "‹ " + task.Status(fld.value()).Label() + " ›"
			if i == f.focus {
				value = m.styles.RowSelected.Render(value)
			}
		} else {
			value = fld.input.View()
		}
		lines = append(lines, label+" "+value)
	}
	if f.err != "" {
		lines = append(lines, "", m.styles.Error.Render(f.err))
	}
	lines = append(lines, "", m.styles.Muted.Render("tab next field · ctrl+s save · esc back"))
	return m.styles.Card.Render(strings.Join(lines, "\n"))
}

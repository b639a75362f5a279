package tui

import (
	"fmt"
	"math"
	"strings"

	"wwtpDashboard/internal/dashboard"
	"wwtpDashboard/internal/models/sensor"
	"wwtpDashboard/internal/models/task"
	"wwtpDashboard/internal/taskview"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const (
	timeLayout = "2006-01-02 15:04"
	dateLayout = "2006-01-02"
)

func (m *Model) View() string {
	width := contentWidth(m.width)

	var body string
	switch {
	case m.form != nil:
		body = m.formView(m.form)
	case m.view == ViewSensors:
		body = m.sensorsView()
	case m.view == ViewTrends:
		body = m.trendsView(width)
	case m.view == ViewTasks:
		body = m.tasksView(width)
	case m.view == ViewFiles:
		body = m.filesView()
	case m.view == ViewNotes:
		body = m.notesView()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		"",
		body,
		"",
		m.statusBar(),
		m.help.View(m.keys),
	)
}

func (m *Model) header() string {
	tabs := make([]string, 0, viewCount)
	for v := ViewSensors; v < viewCount; v++ {
		style := m.styles.Tab
		if v == m.view {
			style = m.styles.TabActive
		}
		tabs = append(tabs, style.Render(v.String()))
	}

	title := m.styles.Title.Render("WWTP Dashboard")
	parts := []string{title, " ", lipgloss.JoinHorizontal(lipgloss.Top, tabs...)}
	if n := len(m.state.Notifications); n > 0 {
		parts = append(parts, " ", m.styles.Badge.Render(fmt.Sprintf("%d due", n)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

func (m *Model) statusBar() string {
	var parts []string
	if !m.state.SensorsUpdatedAt.IsZero() {
		parts = append(parts, "sensors "+m.state.SensorsUpdatedAt.Format("15:04:05"))
	}
	if !m.state.TasksUpdatedAt.IsZero() {
		parts = append(parts, "tasks "+m.state.TasksUpdatedAt.Format("15:04:05"))
	}
	line := m.styles.StatusBar.Render(strings.Join(parts, " · "))
	if err := firstError(m.state.SensorErr, m.state.TaskErr); err != nil {
		line += m.styles.Error.Render("  " + err.Error())
	}
	switch {
	case m.flash == "":
	case m.flashErr:
		line += m.styles.Error.Render("  " + m.flash)
	default:
		line += m.styles.Flash.Render("  " + m.flash)
	}
	return line
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) sensorsView() string {
	cards := make([]string, 0, len(sensor.Tanks()))
	for _, tank := range sensor.Tanks() {
		cards = append(cards, m.tankCard(tank, m.state.Latest[tank.Name]))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m *Model) tankCard(tank sensor.Tank, latest *dashboard.Latest) string {
	lines := []string{m.styles.CardTitle.Render(tank.Label)}
	if latest == nil || latest.Current == nil {
		lines = append(lines, m.styles.Muted.Render("no readings"))
		return m.styles.Card.Render(strings.Join(lines, "\n"))
	}

	lines = append(lines, m.styles.Muted.Render(latest.Current.Timestamp.UTC().Format(timeLayout)+" UTC"))
	for _, metric := range tank.Metrics {
		current := metricValue(latest.Current, metric)
		past := metricValue(latest.Past, metric)
		lines = append(lines, fmt.Sprintf("%-12s %8s %s", metric, formatValue(current), m.delta(current, past)))
	}
	lines = append(lines, m.styles.Muted.Render(fmt.Sprintf("vs %gh ago", latest.AgoHours)))
	return m.styles.Card.Render(strings.Join(lines, "\n"))
}

func metricValue(r *sensor.Reading, m sensor.Metric) *float64 {
	if r == nil {
		return nil
	}
	if slot := r.Value(m); slot != nil {
		return *slot
	}
	return nil
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// delta renders the change from past to current with an arrow.
func (m *Model) delta(current, past *float64) string {
	if current == nil || past == nil {
		return m.styles.Muted.Render("  n/a")
	}
	d := *current - *past
	switch {
	case math.Abs(d) < 0.005:
		return m.styles.Muted.Render("= 0.00")
	case d > 0:
		return m.styles.Up.Render(fmt.Sprintf("▲ %.2f", d))
	default:
		return m.styles.Down.Render(fmt.Sprintf("▼ %.2f", -d))
	}
}

func (m *Model) trendsView(width int) string {
	metric := m.tank.Metrics[m.metric%len(m.tank.Metrics)]
	title := m.styles.CardTitle.Render(fmt.Sprintf("%s %s, %s", m.tank.Label, metric, m.rangeLabel()))

	switch {
	case m.trendErr != nil:
		return title + "\n" + m.styles.Error.Render(m.trendErr.Error())
	case m.trend == nil && m.trendFetch:
		return title + "\n" + m.styles.Muted.Render("loading…")
	}

	points := trendPoints(m.trend, metric)
	if len(points) < 2 {
		return title + "\n" + m.styles.Muted.Render("not enough data")
	}

	graph := asciigraph.Plot(points,
		asciigraph.Height(12),
		asciigraph.Width(max(20, width-12)),
		asciigraph.Precision(2),
		asciigraph.Caption(fmt.Sprintf("%d buckets of %ds", len(points), m.trend.BucketSec)),
	)
	return title + "\n" + graph
}

func (m *Model) rangeLabel() string {
	if m.custom == nil {
		return "last " + trendPresets[m.preset].label
	}
	return m.custom.start.In(m.loc).Format(timeLayout) + " to " + m.custom.end.In(m.loc).Format(timeLayout)
}

// trendPoints returns the non-null averages of one metric in time order.
func trendPoints(s *dashboard.Series, metric sensor.Metric) []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, 0, len(s.Rows))
	for _, row := range s.Rows {
		if v := row.Values[metric]; v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func (m *Model) visibleTasks() []task.Task {
	return taskview.Visible(m.state.Tasks, m.now())
}

func (m *Model) tasksView(width int) string {
	now := m.now()
	visible := taskview.Visible(m.state.Tasks, now)
	archived := len(taskview.Archived(m.state.Tasks, now))

	if len(visible) == 0 {
		return m.styles.Muted.Render("no tasks")
	}

	lines := make([]string, 0, len(visible)+1)
	for i, t := range visible {
		due := "no due date"
		if t.DueDate != nil {
			due = t.DueDate.UTC().Format(dateLayout)
		}
		row := fmt.Sprintf("%-16s %-11s %s", t.Status.Label(), due, t.Title)
		if t.Status == task.StatusDone && t.PicLapangan != nil {
			row += " (" + *t.PicLapangan + ")"
		}
		row = truncate(row, width-4)

		style := m.styles.Row
		if i == m.cursor {
			style = m.styles.RowSelected
		}
		rendered := style.Render(row)
		if taskview.IsOverdue(t, now) {
			rendered += m.styles.Overdue.Render(" overdue")
		}
		lines = append(lines, rendered)
	}

	summary := fmt.Sprintf("%d pending", taskview.PendingCount(m.state.Tasks))
	if archived > 0 {
		summary += fmt.Sprintf(" · %d archived", archived)
	}
	lines = append(lines, m.styles.Muted.Render(summary))
	if m.deleting != nil {
		lines = append(lines, "", m.styles.Error.Render(fmt.Sprintf("Delete %q? y/n", m.deleting.Title)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) filesView() string {
	lines := make([]string, 0, len(fileActions)+2)
	for i, a := range fileActions {
		style := m.styles.Row
		if i == m.fileCursor {
			style = m.styles.RowSelected
		}
		lines = append(lines, style.Render(a.label))
	}
	lines = append(lines, "", m.styles.Muted.Render("exports are written to "+m.exportDir))
	return strings.Join(lines, "\n")
}

func (m *Model) notesView() string {
	hint := "enter to edit"
	if m.notepad.Focused() {
		hint = "esc to stop editing · ctrl+s save"
	}
	return m.notepad.View() + "\n" + m.styles.Muted.Render(hint)
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) > width-1 {
		r = r[:width-1]
	}
	return string(r) + "…"
}


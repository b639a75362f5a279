package taskview_test

import (
	"testing"
	"time"

	"wwtpDashboard/internal/models/task"
	"wwtpDashboard/internal/taskview"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := now.AddDate(0, 0, -n)
	return &t
}

func ids(tasks []task.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestIsArchived(t *testing.T) {
	tests := []struct {
		name string
		task task.Task
		want bool
	}{
		{name: "done 31 days ago", task: task.Task{Status: task.StatusDone, DueDate: daysAgo(31)}, want: true},
		{name: "done 29 days ago", task: task.Task{Status: task.StatusDone, DueDate: daysAgo(29)}, want: false},
		{name: "done exactly 30 days ago", task: task.Task{Status: task.StatusDone, DueDate: daysAgo(30)}, want: false},
		{name: "done without due date", task: task.Task{Status: task.StatusDone}, want: false},
		{name: "todo long overdue", task: task.Task{Status: task.StatusTodo, DueDate: daysAgo(90)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, taskview.IsArchived(tt.task, now))
		})
	}
}

func TestSort(t *testing.T) {
	in := []task.Task{
		{ID: 1, Status: task.StatusBlocked},
		{ID: 2, Status: task.StatusTodo},
		{ID: 3, Status: task.StatusTodo, DueDate: daysAgo(1)},
		{ID: 4, Status: task.StatusInProgress},
		{ID: 5, Status: task.StatusDone, DueDate: daysAgo(2)},
		{ID: 6, Status: task.StatusTodo, DueDate: daysAgo(5)},
		{ID: 7, Status: task.StatusTodo, DueDate: daysAgo(5)},
	}

	got := taskview.Sort(in)

	assert.Equal(t, []int64{4, 6, 7, 3, 2, 5, 1}, ids(got))
	assert.Equal(t, int64(1), in[0].ID, "input untouched")
}

func TestSort_TiesBreakOnID(t *testing.T) {
	due := daysAgo(3)
	in := []task.Task{
		{ID: 9, Status: task.StatusTodo, DueDate: due},
		{ID: 2, Status: task.StatusTodo, DueDate: due},
		{ID: 5, Status: task.StatusTodo, DueDate: due},
	}
	assert.Equal(t, []int64{2, 5, 9}, ids(taskview.Sort(in)))
}

func TestVisibleAndArchived(t *testing.T) {
	in := []task.Task{
		{ID: 1, Status: task.StatusDone, DueDate: daysAgo(31)},
		{ID: 2, Status: task.StatusDone, DueDate: daysAgo(29)},
		{ID: 3, Status: task.StatusTodo},
		{ID: 4, Status: task.StatusDone},
	}

	assert.Equal(t, []int64{3, 2, 4}, ids(taskview.Visible(in, now)))
	assert.Equal(t, []int64{1}, ids(taskview.Archived(in, now)))
	assert.Equal(t, 1, taskview.PendingCount(in))
}

func TestNotifications(t *testing.T) {
	in6 := now.AddDate(0, 0, 6)
	in8 := now.AddDate(0, 0, 8)
	in := []task.Task{
		{ID: 1, Title: "overdue", Status: task.StatusTodo, DueDate: daysAgo(3), PicMaintenance: ptr("Budi")},
		{ID: 2, Title: "soon", Status: task.StatusInProgress, DueDate: &in6},
		{ID: 3, Title: "far", Status: task.StatusTodo, DueDate: &in8},
		{ID: 4, Title: "finished", Status: task.StatusDone, DueDate: daysAgo(1)},
		{ID: 5, Title: "undated", Status: task.StatusBlocked},
	}

	got := taskview.Notifications(in, now)

	require.Len(t, got, 2)
	assert.Equal(t, "overdue", got[0].Title)
	assert.Equal(t, "Budi", *got[0].Pic)
	assert.Equal(t, "soon", got[1].Title)
	assert.True(t, taskview.IsOverdue(in[0], now))
	assert.False(t, taskview.IsOverdue(in[1], now))
}

func ptr[T any](v T) *T {
	return &v
}

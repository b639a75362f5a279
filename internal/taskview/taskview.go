// Package taskview derives what the task list shows from the fetched
// collection. Every function takes now explicitly and never modifies its
// input.
package taskview

import (
	"cmp"
	"slices"
	"time"

	"wwtpDashboard/internal/models/task"
)

const (
	ArchiveAfter       = 30 * 24 * time.Hour
	NotificationWindow = 7 * 24 * time.Hour
)

var statusRank = map[task.Status]int{
	task.StatusInProgress: 0,
	task.StatusTodo:       1,
	task.StatusDone:       2,
	task.StatusBlocked:    3,
}

func rank(s task.Status) int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return len(statusRank)
}

// IsArchived reports whether a done task is more than 30 days past due.
// Done tasks without a due date stay visible.
func IsArchived(t task.Task, now time.Time) bool {
	if t.Status != task.StatusDone || t.DueDate == nil {
		return false
	}
	return now.Sub(*t.DueDate) > ArchiveAfter
}

func compare(a, b task.Task) int {
	if c := cmp.Compare(rank(a.Status), rank(b.Status)); c != 0 {
		return c
	}
	switch {
	case a.DueDate != nil && b.DueDate == nil:
		return -1
	case a.DueDate == nil && b.DueDate != nil:
		return 1
	case a.DueDate != nil && b.DueDate != nil:
		if c := a.DueDate.Compare(*b.DueDate); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort returns a sorted copy: status rank, then due date with dated
// tasks first, then id.
func Sort(tasks []task.Task) []task.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, compare)
	return out
}

// Visible drops archived tasks and sorts the rest.
func Visible(tasks []task.Task, now time.Time) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if !IsArchived(t, now) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, compare)
	return out
}

// Archived returns the tasks Visible hides, sorted the same way.
func Archived(tasks []task.Task, now time.Time) []task.Task {
	var out []task.Task
	for _, t := range tasks {
		if IsArchived(t, now) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, compare)
	return out
}

// PendingCount counts tasks that are not done.
func PendingCount(tasks []task.Task) int {
	n := 0
	for _, t := range tasks {
		if t.Status != task.StatusDone {
			n++
		}
	}
	return n
}

// Notifications lists open tasks that are overdue or due within a week,
// earliest first.
func Notifications(tasks []task.Task, now time.Time) []task.Notification {
	limit := now.Add(NotificationWindow)
	var out []task.Notification
	for _, t := range tasks {
		if t.Status == task.StatusDone || t.DueDate == nil || t.DueDate.After(limit) {
			continue
		}
		out = append(out, task.Notification{
			Date:   *t.DueDate,
			Title:  t.Title,
			Status: t.Status,
			Pic:    t.PicMaintenance,
		})
	}
	slices.SortStableFunc(out, func(a, b task.Notification) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

// IsOverdue reports whether an open task is past its due date.
func IsOverdue(t task.Task, now time.Time) bool {
	return t.Status != task.StatusDone && t.DueDate != nil && t.DueDate.Before(now)
}

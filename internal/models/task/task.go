package task

import (
	"strings"
	"time"
)

type Task struct {
	ID             int64      `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Description    *string    `json:"description" db:"description"`
	DueDate        *time.Time `json:"due_date" db:"due_date"`
	Status         Status     `json:"status" db:"status"`
	PicLapangan    *string    `json:"pic_lapangan" db:"pic_lapangan"`
	PicMaintenance *string    `json:"pic_maintenance" db:"pic_maintenance"`
}

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

var statusLabels = map[Status]string{
	StatusTodo:       "Direncanakan",
	StatusInProgress: "Dalam Pengerjaan",
	StatusDone:       "Selesai",
	StatusBlocked:    "Dibatalkan",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the operator-facing name shown on the dashboard.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Display renders the raw value with underscores as spaces, as in exports.
func (s Status) Display() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// Notification is an upcoming or overdue task surfaced in the badge feed.
type Notification struct {
	Date   time.Time `json:"date" db:"due_date"`
	Title  string    `json:"title" db:"title"`
	Status Status    `json:"status" db:"status"`
	Pic    *string   `json:"pic" db:"pic_maintenance"`
}

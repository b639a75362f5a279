package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wwtpDashboard/internal/database"
	"wwtpDashboard/internal/logger"
	"wwtpDashboard/internal/models/task"
	repo "wwtpDashboard/internal/repository"

	"go.uber.org/zap"
)

const taskColumns = `"id", "title", "description", "due_date", "status", "pic_lapangan", "pic_maintenance"`

var importColumns = []string{"title", "description", "due_date", "status", "pic_maintenance"}

type TaskStorage struct {
	db *database.DB
}

func NewTaskStorage(db *database.DB) *TaskStorage {
	return &TaskStorage{db: db}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		logger.Error("Repository: ping failed", err)
		return err
	}
	return nil
}

// List returns every task, undated ones last, then by due date and newest id.
func (s *TaskStorage) List(ctx context.Context) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM "tasks"
		ORDER BY CASE WHEN "due_date" IS NULL THEN 1 ELSE 0 END, "due_date" ASC, "id" DESC`

	tasks := []task.Task{}
	if err := s.db.Select(ctx, &tasks, query); err != nil {
		logger.Error("Repository: list tasks failed", err)
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	var t task.Task
	err := s.db.Get(ctx, &t, `SELECT `+taskColumns+` FROM "tasks" WHERE "id" = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		logger.Error("Repository: get task failed", err, zap.Int64("task_id", id))
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &t, nil
}

// Create inserts t and stores the generated id back into it.
func (s *TaskStorage) Create(ctx context.Context, t *task.Task) error {
	id, err := s.db.InsertID(ctx, "tasks",
		[]string{"title", "description", "due_date", "status", "pic_lapangan", "pic_maintenance"},
		t.Title, t.Description, t.DueDate, string(t.Status), t.PicLapangan, t.PicMaintenance)
	if err != nil {
		logger.Error("Repository: create task failed", err)
		return fmt.Errorf("create task: %w", err)
	}
	t.ID = id
	logger.Info("Repository: task created", zap.Int64("task_id", id))
	return nil
}

// Update writes the supplied patch fields. A missing id is not an error.
func (s *TaskStorage) Update(ctx context.Context, id int64, p task.Patch) error {
	var sets []string
	var args []any
	add := func(col string, set bool, value any) {
		if !set {
			return
		}
		sets = append(sets, `"`+col+`" = ?`)
		args = append(args, value)
	}

	add("title", p.Title.Set, value(p.Title))
	add("description", p.Description.Set, value(p.Description))
	add("status", p.Status.Set, value(p.Status))
	add("due_date", p.DueDate.Set, value(p.DueDate))
	add("pic_lapangan", p.PicLapangan.Set, value(p.PicLapangan))

	if len(sets) == 0 {
		return errors.New("update task: empty patch")
	}

	args = append(args, id)
	query := `UPDATE "tasks" SET ` + strings.Join(sets, ", ") + ` WHERE "id" = ?`
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		logger.Error("Repository: update task failed", err, zap.Int64("task_id", id))
		return fmt.Errorf("update task %d: %w", id, err)
	}
	return nil
}

func value[T any](o task.Optional[T]) any {
	if o.Value == nil {
		return nil
	}
	switch v := any(*o.Value).(type) {
	case task.Status:
		return string(v)
	default:
		return v
	}
}

func (s *TaskStorage) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM "tasks" WHERE "id" = ?`, id); err != nil {
		logger.Error("Repository: delete task failed", err, zap.Int64("task_id", id))
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

// InsertBatch inserts all tasks atomically, splitting the VALUES list so
// no statement exceeds the dialect's parameter limit.
func (s *TaskStorage) InsertBatch(ctx context.Context, tasks []task.Task) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}
	start := time.Now()

	perStmt := s.db.Dialect().MaxParams() / len(importColumns)
	quoted := make([]string, len(importColumns))
	for i, c := range importColumns {
		quoted[i] = `"` + c + `"`
	}
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(importColumns)), ", ") + ")"

	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		for lo := 0; lo < len(tasks); lo += perStmt {
			hi := min(lo+perStmt, len(tasks))
			chunk := tasks[lo:hi]

			rows := make([]string, len(chunk))
			args := make([]any, 0, len(chunk)*len(importColumns))
			for i, t := range chunk {
				rows[i] = row
				status := t.Status
				if status == "" {
					status = task.StatusTodo
				}
				args = append(args, t.Title, t.Description, t.DueDate, string(status), t.PicMaintenance)
			}

			query := `INSERT INTO "tasks" (` + strings.Join(quoted, ", ") + `) VALUES ` + strings.Join(rows, ", ")
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Repository: batch insert failed", err, zap.Int("rows", len(tasks)))
		return 0, fmt.Errorf("insert batch: %w", err)
	}

	logger.Info("Repository: batch inserted",
		zap.Int("rows", len(tasks)),
		zap.Duration("ms", time.Since(start)))
	return len(tasks), nil
}

// DueBetween returns tasks due in [from, to] for export: status rank
// (todo, in_progress, blocked, done), then due date, then id.
func (s *TaskStorage) DueBetween(ctx context.Context, from, to time.Time) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM "tasks"
		WHERE "due_date" BETWEEN ? AND ?
		ORDER BY CASE "status"
			WHEN 'todo' THEN 1
			WHEN 'in_progress' THEN 2
			WHEN 'blocked' THEN 3
			WHEN 'done' THEN 4
			ELSE 5 END,
		"due_date" ASC, "id" ASC`

	tasks := []task.Task{}
	if err := s.db.Select(ctx, &tasks, query, from, to); err != nil {
		logger.Error("Repository: tasks by due date failed", err)
		return nil, fmt.Errorf("tasks due between: %w", err)
	}
	return tasks, nil
}

// Upcoming returns open tasks due no later than until, overdue ones included.
func (s *TaskStorage) Upcoming(ctx context.Context, until time.Time) ([]task.Notification, error) {
	query := `SELECT "due_date", "title", "status", "pic_maintenance" FROM "tasks"
		WHERE "due_date" IS NOT NULL AND "status" <> 'done' AND "due_date" <= ?
		ORDER BY "due_date" ASC, "id" ASC`

	items := []task.Notification{}
	if err := s.db.Select(ctx, &items, query, until); err != nil {
		logger.Error("Repository: upcoming tasks failed", err)
		return nil, fmt.Errorf("upcoming tasks: %w", err)
	}
	return items, nil
}

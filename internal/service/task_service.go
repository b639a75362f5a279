package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wwtpDashboard/internal/config"
	"wwtpDashboard/internal/logger"
	"wwtpDashboard/internal/models/task"
	repo "wwtpDashboard/internal/repository"

	"go.uber.org/zap"
)

const upcomingWindow = 7 * 24 * time.Hour

type CreateTaskInput struct {
	Title       string
	Description *string
	DueDate     *string
	Status      *string
	PicLapangan *string
}

// UpdateTaskInput carries raw values; a field is applied only when Set.
type UpdateTaskInput struct {
	Title       task.Optional[string]
	Description task.Optional[string]
	Status      task.Optional[string]
	DueDate     task.Optional[string]
	PicLapangan task.Optional[string]
}

type TaskService struct {
	repo    TaskRepository
	now     func() time.Time
	columns config.ImportColumns
}

func NewTaskService(repo TaskRepository, opts ...Option) *TaskService {
	o := applyOptions(opts)
	return &TaskService{
		repo:    repo,
		now:     o.now,
		columns: o.columns,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

func (s *TaskService) List(ctx context.Context) ([]task.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (*task.Task, error) {
	if id <= 0 {
		return nil, NewValidationError("id", "must be a positive integer")
	}
	t, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		logger.Info("Service: task not found", zap.Int64("task_id", id))
		return nil, NewNotFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (*task.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, NewValidationError("title", "required")
	}

	t := &task.Task{
		Title:       title,
		Description: in.Description,
		Status:      task.StatusTodo,
	}

	if in.Status != nil && strings.TrimSpace(*in.Status) != "" {
		status, err := parseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		t.Status = status
	}

	if in.DueDate != nil && strings.TrimSpace(*in.DueDate) != "" {
		due, err := parseTimestamp(*in.DueDate)
		if err != nil {
			return nil, NewValidationError("due_date", "invalid date")
		}
		t.DueDate = &due
	}

	if t.Status == task.StatusDone {
		t.PicLapangan = trimmedOrNil(in.PicLapangan)
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	logger.Info("Service: task created", zap.Int64("task_id", t.ID), zap.String("status", string(t.Status)))
	return t, nil
}

// Update applies a partial update and returns the stored row, or nil when
// no task has the id. pic_lapangan is only kept on tasks that end up done.
func (s *TaskService) Update(ctx context.Context, id int64, in UpdateTaskInput) (*task.Task, error) {
	if id <= 0 {
		return nil, NewValidationError("id", "must be a positive integer")
	}

	var opts []task.PatchOption

	if in.Title.Set {
		if in.Title.Value == nil || strings.TrimSpace(*in.Title.Value) == "" {
			return nil, NewValidationError("title", "cannot be empty")
		}
		opts = append(opts, task.WithTitle(strings.TrimSpace(*in.Title.Value)))
	}

	if in.Description.Set {
		opts = append(opts, task.WithDescription(in.Description.Value))
	}

	var status *task.Status
	if in.Status.Set {
		if in.Status.Value == nil {
			return nil, NewValidationError("status", "cannot be null")
		}
		st, err := parseStatus(*in.Status.Value)
		if err != nil {
			return nil, err
		}
		status = &st
		opts = append(opts, task.WithStatus(st))
	}

	if in.DueDate.Set {
		if in.DueDate.Value == nil || strings.TrimSpace(*in.DueDate.Value) == "" {
			opts = append(opts, task.WithDueDate(nil))
		} else {
			due, err := parseTimestamp(*in.DueDate.Value)
			if err != nil {
				return nil, NewValidationError("due_date", "invalid date")
			}
			opts = append(opts, task.WithDueDate(&due))
		}
	}

	switch {
	case status != nil && *status != task.StatusDone:
		opts = append(opts, task.WithPicLapangan(nil))
	case in.PicLapangan.Set:
		pic := trimmedOrNil(in.PicLapangan.Value)
		if pic != nil && status == nil {
			// the stored status decides when the update does not carry one
			current, err := s.repo.GetByID(ctx, id)
			if errors.Is(err, repo.ErrNotFound) {
				logger.Info("Service: update on missing task", zap.Int64("task_id", id))
				return nil, nil
			}
			if err != nil {
				return nil, fmt.Errorf("load task: %w", err)
			}
			if current.Status != task.StatusDone {
				pic = nil
			}
		}
		opts = append(opts, task.WithPicLapangan(pic))
	}

	patch := task.NewPatch(opts...)
	if patch.Empty() {
		return nil, NewValidationError("body", "no fields to update")
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	t, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		logger.Info("Service: update on missing task", zap.Int64("task_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reload task: %w", err)
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewValidationError("id", "must be a positive integer")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	logger.Info("Service: task deleted", zap.Int64("task_id", id))
	return nil
}

// Import maps spreadsheet records onto tasks using the configured headers,
// drops rows without a title and inserts the rest as one batch.
func (s *TaskService) Import(ctx context.Context, records []map[string]any) (int, error) {
	if len(records) == 0 {
		return 0, NewValidationError("body", "expected a non-empty list of records")
	}

	tasks := make([]task.Task, 0, len(records))
	for _, rec := range records {
		title := cellString(rec[s.columns.Title])
		if title == "" {
			continue
		}
		tasks = append(tasks, task.Task{
			Title:          title,
			Description:    nonEmpty(cellString(rec[s.columns.Description])),
			DueDate:        importDate(rec[s.columns.DueDate]),
			Status:         task.StatusTodo,
			PicMaintenance: nonEmpty(cellString(rec[s.columns.PicMaintenance])),
		})
	}

	if len(tasks) == 0 {
		return 0, NewValidationError("body", "no rows with a title")
	}

	inserted, err := s.repo.InsertBatch(ctx, tasks)
	if err != nil {
		return 0, fmt.Errorf("import tasks: %w", err)
	}
	logger.Info("Service: tasks imported",
		zap.Int("records", len(records)),
		zap.Int("inserted", inserted))
	return inserted, nil
}

// Upcoming lists open tasks that are overdue or due within a week.
func (s *TaskService) Upcoming(ctx context.Context) ([]task.Notification, error) {
	items, err := s.repo.Upcoming(ctx, s.now().UTC().Add(upcomingWindow))
	if err != nil {
		return nil, fmt.Errorf("upcoming tasks: %w", err)
	}
	return items, nil
}

func parseStatus(raw string) (task.Status, error) {
	st := task.Status(strings.TrimSpace(raw))
	if !st.Valid() {
		return "", NewValidationError("status", "must be one of todo, in_progress, done, blocked")
	}
	return st, nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	return nonEmpty(strings.TrimSpace(*v))
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

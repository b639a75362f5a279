package handlers

import (
	"context"

	"wwtpDashboard/internal/models/sensor"
	"wwtpDashboard/internal/models/task"
	"wwtpDashboard/internal/service"
	"wwtpDashboard/internal/spreadsheet"
)

type TaskService interface {
	HealthCheck(ctx context.Context) error
	List(ctx context.Context) ([]task.Task, error)
	Get(ctx context.Context, id int64) (*task.Task, error)
	Create(ctx context.Context, in service.CreateTaskInput) (*task.Task, error)
	Update(ctx context.Context, id int64, in service.UpdateTaskInput) (*task.Task, error)
	Delete(ctx context.Context, id int64) error
	Import(ctx context.Context, records []map[string]any) (int, error)
	Upcoming(ctx context.Context) ([]task.Notification, error)
}

type SensorService interface {
	Latest(ctx context.Context, table, agoHours string) (*service.LatestResult, error)
	Series(ctx context.Context, table, start, end string) (*service.SeriesResult, error)
	Recent(ctx context.Context, table, limit string) ([]sensor.Reading, error)
}

type ExportService interface {
	Sensors(ctx context.Context, table, start, end string) (*spreadsheet.File, error)
	Tasks(ctx context.Context, start, end string) (*spreadsheet.File, error)
}

var (
	_ TaskService   = (*service.TaskService)(nil)
	_ SensorService = (*service.SensorService)(nil)
	_ ExportService = (*service.ExportService)(nil)
)

package service

import (
	"context"
	"time"

	"wwtpDashboard/internal/models/sensor"
	"wwtpDashboard/internal/models/task"
)

type TaskRepository interface {
	HealthCheck(ctx context.Context) error
	List(ctx context.Context) ([]task.Task, error)
	GetByID(ctx context.Context, id int64) (*task.Task, error)
	Create(ctx context.Context, t *task.Task) error
	Update(ctx context.Context, id int64, p task.Patch) error
	Delete(ctx context.Context, id int64) error
	InsertBatch(ctx context.Context, tasks []task.Task) (int, error)
	DueBetween(ctx context.Context, from, to time.Time) ([]task.Task, error)
	Upcoming(ctx context.Context, until time.Time) ([]task.Notification, error)
}

type SensorRepository interface {
	Latest(ctx context.Context, tank sensor.Tank) (*sensor.Reading, error)
	AtOrBefore(ctx context.Context, tank sensor.Tank, at time.Time) (*sensor.Reading, error)
	Recent(ctx context.Context, tank sensor.Tank, n int) ([]sensor.Reading, error)
	Range(ctx context.Context, tank sensor.Tank, start, end time.Time) ([]sensor.Reading, error)
	Bucketed(ctx context.Context, tank sensor.Tank, start, end time.Time, bucketSec int64) ([]sensor.BucketPoint, error)
}

package service_test

import (
	"context"
	"time"

	"wwtpDashboard/internal/models/sensor"
	"wwtpDashboard/internal/models/task"
	"wwtpDashboard/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockTaskRepository - task repository mock
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskRepository) List(ctx context.Context) ([]task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.Task), args.Error(1)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, id int64, p task.Patch) error {
	args := m.Called(ctx, id, p)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) InsertBatch(ctx context.Context, tasks []task.Task) (int, error) {
	args := m.Called(ctx, tasks)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) DueBetween(ctx context.Context, from, to time.Time) ([]task.Task, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.Task), args.Error(1)
}

func (m *MockTaskRepository) Upcoming(ctx context.Context, until time.Time) ([]task.Notification, error) {
	args := m.Called(ctx, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.Notification), args.Error(1)
}

// MockSensorRepository - sensor repository mock
type MockSensorRepository struct {
	mock.Mock
}

func (m *MockSensorRepository) Latest(ctx context.Context, tank sensor.Tank) (*sensor.Reading, error) {
	args := m.Called(ctx, tank)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sensor.Reading), args.Error(1)
}

func (m *MockSensorRepository) AtOrBefore(ctx context.Context, tank sensor.Tank, at time.Time) (*sensor.Reading, error) {
	args := m.Called(ctx, tank, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sensor.Reading), args.Error(1)
}

func (m *MockSensorRepository) Recent(ctx context.Context, tank sensor.Tank, n int) ([]sensor.Reading, error) {
	args := m.Called(ctx, tank, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sensor.Reading), args.Error(1)
}

func (m *MockSensorRepository) Range(ctx context.Context, tank sensor.Tank, start, end time.Time) ([]sensor.Reading, error) {
	args := m.Called(ctx, tank, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sensor.Reading), args.Error(1)
}

func (m *MockSensorRepository) Bucketed(ctx context.Context, tank sensor.Tank, start, end time.Time, bucketSec int64) ([]sensor.BucketPoint, error) {
	args := m.Called(ctx, tank, start, end, bucketSec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sensor.BucketPoint), args.Error(1)
}

var (
	_ service.TaskRepository   = (*MockTaskRepository)(nil)
	_ service.SensorRepository = (*MockSensorRepository)(nil)
)

func ptr[T any](v T) *T {
	return &v
}

func fixedClock(t time.Time) service.Option {
	return service.WithClock(func() time.Time { return t })
}

func assertValidation(err error, field string) bool {
	be, ok := err.(*service.BusinessError)
	return ok && be.Code == service.CodeValidation && be.Details["field"] == field
}

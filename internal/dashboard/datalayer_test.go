package dashboard_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wwtpDashboard/internal/config"
	"wwtpDashboard/internal/dashboard"
	"wwtpDashboard/internal/models/sensor"
	"wwtpDashboard/internal/models/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	latestCalls   atomic.Int32
	upcomingCalls atomic.Int32

	mu        sync.Mutex
	failNext  bool
	codByTank map[string]float64
}

func newFakeSource() *fakeSource {
	return &fakeSource{codByTank: map[string]float64{"t500": 40, "t700": 20}}
}

func (f *fakeSource) Latest(_ context.Context, tank sensor.Tank, agoHours int) (*dashboard.Latest, error) {
	f.latestCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		return nil, errors.New("connection refused")
	}
	cod := f.codByTank[tank.Name]
	return &dashboard.Latest{
		Current:  &sensor.Reading{Tank: tank, COD: &cod},
		AgoHours: float64(agoHours),
	}, nil
}

func (f *fakeSource) Tasks(context.Context) ([]task.Task, error) {
	return []task.Task{{ID: 1, Title: "Clean filter", Status: task.StatusTodo}}, nil
}

func (f *fakeSource) Upcoming(context.Context) ([]task.Notification, error) {
	f.upcomingCalls.Add(1)
	return []task.Notification{{Title: "Clean filter", Status: task.StatusTodo}}, nil
}

func TestDataLayer_InitialPollAndWake(t *testing.T) {
	src := newFakeSource()
	d := dashboard.NewDataLayer(src, config.DashboardConfig{
		SensorInterval:       time.Hour,
		NotificationInterval: time.Hour,
		AgoHours:             24,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return src.latestCalls.Load() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return src.upcomingCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	d.Wake()
	assert.Eventually(t, func() bool { return src.latestCalls.Load() == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), src.upcomingCalls.Load())

	d.Reload()
	assert.Eventually(t, func() bool {
		return src.latestCalls.Load() == 6 && src.upcomingCalls.Load() == 2
	}, time.Second, 5*time.Millisecond)

	d.WakeTasks()
	assert.Eventually(t, func() bool { return src.upcomingCalls.Load() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(6), src.latestCalls.Load())

	snap := d.Snapshot()
	require.Contains(t, snap.Latest, "t500")
	assert.Equal(t, 40.0, *snap.Latest["t500"].Current.COD)
	assert.Equal(t, float64(24), snap.Latest["t700"].AgoHours)
	assert.Len(t, snap.Notifications, 1)
	assert.Len(t, snap.Tasks, 1)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestDataLayer_FailedPollKeepsPreviousValues(t *testing.T) {
	src := newFakeSource()
	d := dashboard.NewDataLayer(src, config.DashboardConfig{})
	ctx := context.Background()

	d.RefreshSensors(ctx)
	first := d.Snapshot()
	require.NoError(t, first.SensorErr)

	src.mu.Lock()
	src.failNext = true
	src.mu.Unlock()
	d.RefreshSensors(ctx)

	second := d.Snapshot()
	assert.Error(t, second.SensorErr)
	assert.Equal(t, 40.0, *second.Latest["t500"].Current.COD)
	assert.Equal(t, first.SensorsUpdatedAt, second.SensorsUpdatedAt)
}

func TestDataLayer_SnapshotIsACopy(t *testing.T) {
	d := dashboard.NewDataLayer(newFakeSource(), config.DashboardConfig{})
	d.RefreshTasks(context.Background())

	snap := d.Snapshot()
	snap.Tasks[0].Title = "changed"
	delete(snap.Latest, "t500")

	assert.Equal(t, "Clean filter", d.Snapshot().Tasks[0].Title)
}

func TestDataLayer_UpdatesSignal(t *testing.T) {
	d := dashboard.NewDataLayer(newFakeSource(), config.DashboardConfig{})
	d.RefreshTasks(context.Background())
	d.RefreshTasks(context.Background())

	select {
	case <-d.Updates():
	default:
		t.Fatal("expected an update signal")
	}
	select {
	case <-d.Updates():
		t.Fatal("signals should coalesce")
	default:
	}
}

package dashboard

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"wwtpDashboard/internal/config"
	"wwtpDashboard/internal/logger"
	"wwtpDashboard/internal/models/sensor"
	"wwtpDashboard/internal/models/task"

	"go.uber.org/zap"
)

const (
	defaultSensorInterval       = 2 * time.Minute
	defaultNotificationInterval = time.Minute
	defaultAgoHours             = 24
	defaultRequestTimeout       = 15 * time.Second
)

// Source is the read side of the REST service.
type Source interface {
	Latest(ctx context.Context, tank sensor.Tank, agoHours int) (*Latest, error)
	Tasks(ctx context.Context) ([]task.Task, error)
	Upcoming(ctx context.Context) ([]task.Notification, error)
}

// State is a point-in-time copy of everything the data layer knows.
// Readings are shared between snapshots and must not be modified.
type State struct {
	Latest        map[string]*Latest
	Tasks         []task.Task
	Notifications []task.Notification

	SensorsUpdatedAt time.Time
	TasksUpdatedAt   time.Time
	SensorErr        error
	TaskErr          error
}

// DataLayer polls sensors and notifications on separate tickers and keeps
// the last good values when a poll fails.
type DataLayer struct {
	src                  Source
	sensorInterval       time.Duration
	notificationInterval time.Duration
	agoHours             int
	timeout              time.Duration

	mu    sync.RWMutex
	state State

	wake      chan struct{}
	wakeTasks chan struct{}
	updates   chan struct{}
}

func NewDataLayer(src Source, cfg config.DashboardConfig) *DataLayer {
	d := &DataLayer{
		src:                  src,
		sensorInterval:       cfg.SensorInterval,
		notificationInterval: cfg.NotificationInterval,
		agoHours:             cfg.AgoHours,
		timeout:              cfg.RequestTimeout,
		state:                State{Latest: map[string]*Latest{}},
		wake:                 make(chan struct{}, 1),
		wakeTasks:            make(chan struct{}, 1),
		updates:              make(chan struct{}, 1),
	}
	if d.sensorInterval <= 0 {
		d.sensorInterval = defaultSensorInterval
	}
	if d.notificationInterval <= 0 {
		d.notificationInterval = defaultNotificationInterval
	}
	if d.agoHours <= 0 {
		d.agoHours = defaultAgoHours
	}
	if d.timeout <= 0 {
		d.timeout = defaultRequestTimeout
	}
	return d
}

// Run polls once immediately and then on every tick until ctx ends.
func (d *DataLayer) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.sensorLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		d.notificationLoop(ctx)
	}()
	wg.Wait()
}

func (d *DataLayer) sensorLoop(ctx context.Context) {
	d.RefreshSensors(ctx)

	ticker := time.NewTicker(d.sensorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.RefreshSensors(ctx)
		case <-d.wake:
			logger.Debug("Worker: wake, refreshing sensors")
			d.RefreshSensors(ctx)
			ticker.Reset(d.sensorInterval)
		case <-ctx.Done():
			logger.Info("Worker: sensor polling stopped")
			return
		}
	}
}

func (d *DataLayer) notificationLoop(ctx context.Context) {
	d.RefreshTasks(ctx)

	ticker := time.NewTicker(d.notificationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.RefreshTasks(ctx)
		case <-d.wakeTasks:
			logger.Debug("Worker: wake, refreshing tasks")
			d.RefreshTasks(ctx)
			ticker.Reset(d.notificationInterval)
		case <-ctx.Done():
			logger.Info("Worker: notification polling stopped")
			return
		}
	}
}

// Wake asks for an immediate sensor poll, for example when the view
// becomes visible again. Repeated calls before the poll coalesce.
func (d *DataLayer) Wake() {
	signal(d.wake)
}

// WakeTasks asks for an immediate task and notification poll, for example
// after the task list was changed.
func (d *DataLayer) WakeTasks() {
	signal(d.wakeTasks)
}

// Reload wakes both loops.
func (d *DataLayer) Reload() {
	d.Wake()
	d.WakeTasks()
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Updates signals after every refresh. Signals coalesce when the reader
// is slow.
func (d *DataLayer) Updates() <-chan struct{} {
	return d.updates
}

func (d *DataLayer) notify() {
	signal(d.updates)
}

func (d *DataLayer) RefreshSensors(ctx context.Context) {
	start := time.Now()
	fresh := make(map[string]*Latest, len(sensor.Tanks()))
	var firstErr error

	for _, tank := range sensor.Tanks() {
		reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
		latest, err := d.src.Latest(reqCtx, tank, d.agoHours)
		cancel()
		if err != nil {
			logger.Warn("Worker: sensor poll failed", zap.String("tank", tank.Name), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fresh[tank.Name] = latest
	}

	d.mu.Lock()
	for name, latest := range fresh {
		d.state.Latest[name] = latest
	}
	d.state.SensorErr = firstErr
	if len(fresh) > 0 {
		d.state.SensorsUpdatedAt = time.Now()
	}
	d.mu.Unlock()

	logger.Debug("Worker: sensors refreshed",
		zap.Int("tanks", len(fresh)),
		zap.Duration("ms", time.Since(start)))
	d.notify()
}

// RefreshTasks reloads the task list and the notification feed.
func (d *DataLayer) RefreshTasks(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	notifications, nErr := d.src.Upcoming(reqCtx)
	if nErr != nil {
		logger.Warn("Worker: notification poll failed", zap.Error(nErr))
	}
	tasks, tErr := d.src.Tasks(reqCtx)
	if tErr != nil {
		logger.Warn("Worker: task poll failed", zap.Error(tErr))
	}

	d.mu.Lock()
	if nErr == nil {
		d.state.Notifications = notifications
	}
	if tErr == nil {
		d.state.Tasks = tasks
	}
	if nErr == nil || tErr == nil {
		d.state.TasksUpdatedAt = time.Now()
	}
	d.state.TaskErr = nErr
	if d.state.TaskErr == nil {
		d.state.TaskErr = tErr
	}
	d.mu.Unlock()

	d.notify()
}

// Snapshot returns a copy of the current state.
func (d *DataLayer) Snapshot() State {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := d.state
	s.Latest = maps.Clone(d.state.Latest)
	s.Tasks = slices.Clone(d.state.Tasks)
	s.Notifications = slices.Clone(d.state.Notifications)
	return s
}

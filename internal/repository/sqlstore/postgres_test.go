package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"wwtpDashboard/internal/config"
	"wwtpDashboard/internal/database"
	"wwtpDashboard/internal/models/sensor"
	"wwtpDashboard/internal/models/task"
	repo "wwtpDashboard/internal/repository"
	"wwtpDashboard/internal/repository/sqlstore"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestSuite runs the storages against a real PostgreSQL.
type PostgresTestSuite struct {
	suite.Suite
	ctx       context.Context
	container testcontainers.Container
	db        *database.DB
	tasks     *sqlstore.TaskStorage
	sensors   *sqlstore.SensorStorage
}

func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(PostgresTestSuite))
}

func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "wwtp",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	s.db, err = database.Open(s.ctx, config.DatabaseConfig{
		Type:         "postgres",
		Host:         host,
		Port:         port.Int(),
		User:         "test",
		Password:     "test",
		Name:         "wwtp",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
	require.NoError(s.T(), err)
	require.NoError(s.T(), database.Migrate(s.db))

	s.tasks = sqlstore.NewTaskStorage(s.db)
	s.sensors = sqlstore.NewSensorStorage(s.db)
}

func (s *PostgresTestSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresTestSuite) SetupTest() {
	_, err := s.db.Exec(s.ctx, `TRUNCATE "tasks", "t500", "t700" RESTART IDENTITY`)
	s.Require().NoError(err)
}

func (s *PostgresTestSuite) TestTaskLifecycle() {
	due := day(2025, 1, 10)
	tk := task.Task{Title: "Clean filter", DueDate: &due, Status: task.StatusTodo}
	s.Require().NoError(s.tasks.Create(s.ctx, &tk))
	s.Equal(int64(1), tk.ID)

	s.Require().NoError(s.tasks.Update(s.ctx, tk.ID, task.NewPatch(
		task.WithStatus(task.StatusDone),
		task.WithPicLapangan(ptr("Ahmad")),
	)))

	got, err := s.tasks.GetByID(s.ctx, tk.ID)
	s.Require().NoError(err)
	s.Equal(task.StatusDone, got.Status)
	s.Equal("Ahmad", *got.PicLapangan)
	s.True(due.Equal(*got.DueDate))

	s.Require().NoError(s.tasks.Delete(s.ctx, tk.ID))
	_, err = s.tasks.GetByID(s.ctx, tk.ID)
	s.ErrorIs(err, repo.ErrNotFound)
}

func (s *PostgresTestSuite) TestListOrder() {
	for _, tk := range []task.Task{
		{Title: "undated", Status: task.StatusTodo},
		{Title: "late", DueDate: ptr(day(2025, 3, 1)), Status: task.StatusTodo},
		{Title: "early", DueDate: ptr(day(2025, 1, 1)), Status: task.StatusTodo},
		{Title: "early twin", DueDate: ptr(day(2025, 1, 1)), Status: task.StatusTodo},
	} {
		s.Require().NoError(s.tasks.Create(s.ctx, &tk))
	}

	list, err := s.tasks.List(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"early twin", "early", "late", "undated"}, titles(list))
}

func (s *PostgresTestSuite) TestInsertBatch() {
	batch := make([]task.Task, 0, 120)
	for range 120 {
		batch = append(batch, task.Task{Title: "imported", Status: task.StatusTodo})
	}

	n, err := s.tasks.InsertBatch(s.ctx, batch)
	s.Require().NoError(err)
	s.Equal(120, n)

	list, err := s.tasks.List(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 120)
}

func (s *PostgresTestSuite) TestSensorBuckets() {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(s.T(), s.sensors, sensor.T700, start, 10*time.Minute, 12)

	latest, err := s.sensors.Latest(s.ctx, sensor.T700)
	s.Require().NoError(err)
	s.Require().NotNil(latest)
	s.Equal(11.0, *latest.COD)
	s.Equal(7.0, *latest.PH)

	points, err := s.sensors.Bucketed(s.ctx, sensor.T700, start, start.Add(2*time.Hour), 3600)
	s.Require().NoError(err)
	s.Require().Len(points, 2)
	s.True(start.Equal(points[0].Start))
	s.Equal(2.5, *points[0].Values[sensor.MetricCOD])
	s.Equal(8.5, *points[1].Values[sensor.MetricCOD])
}

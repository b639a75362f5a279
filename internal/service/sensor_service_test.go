package service_test

import (
	"context"
	"testing"
	"time"

	"wwtpDashboard/internal/models/sensor"
	"wwtpDashboard/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBucketSeconds(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		span time.Duration
		want int64
	}{
		{0, 1},
		{time.Second, 1},
		{300 * time.Second, 1},
		{301 * time.Second, 2},
		{time.Hour, 12},
		{24 * time.Hour, 288},
		{7 * 24 * time.Hour, 2016},
		{1500*time.Millisecond + 300*time.Second, 2},
	}

	for _, tt := range tests {
		t.Run(tt.span.String(), func(t *testing.T) {
			got := service.BucketSeconds(start, start.Add(tt.span))
			assert.Equal(t, tt.want, got)

			buckets := (int64(tt.span/time.Second) + got - 1) / got
			assert.LessOrEqual(t, buckets, int64(service.MaxPoints))
		})
	}
}

func TestSensorService_Series(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	points := make([]sensor.BucketPoint, 300)
	for i := range points {
		points[i] = sensor.BucketPoint{
			Tank:   sensor.T700,
			Start:  start.Add(time.Duration(i) * 288 * time.Second),
			Values: map[sensor.Metric]*float64{sensor.MetricCOD: ptr(float64(i))},
			Counts: map[sensor.Metric]int64{sensor.MetricCOD: 1},
		}
	}

	mockRepo := new(MockSensorRepository)
	mockRepo.On("Bucketed", mock.Anything, sensor.T700, start, end, int64(288)).Return(points, nil)

	svc := service.NewSensorService(mockRepo)
	got, err := svc.Series(context.Background(), "T700", "2025-01-01T00:00:00Z", "2025-01-02T00:00:00Z")

	require.NoError(t, err)
	assert.Equal(t, "t700", got.Table)
	assert.Equal(t, []string{"cod", "pH", "temperature", "tss"}, got.Cols)
	assert.Equal(t, int64(288), got.BucketSec)
	require.Len(t, got.Rows, service.MaxPoints)
	assert.True(t, start.Equal(got.Rows[0].Start))
	mockRepo.AssertExpectations(t)
}

func TestSensorService_SeriesFoldsPartialLeadingBucket(t *testing.T) {
	// 00:00:15 .. 00:50:15 gives 10s buckets; alignment adds [00:00:10, 00:00:20)
	start := time.Date(2025, 1, 1, 0, 0, 15, 0, time.UTC)
	end := start.Add(3000 * time.Second)
	first := time.Date(2025, 1, 1, 0, 0, 10, 0, time.UTC)

	points := make([]sensor.BucketPoint, 301)
	for i := range points {
		points[i] = sensor.BucketPoint{
			Tank:   sensor.T500,
			Start:  first.Add(time.Duration(i) * 10 * time.Second),
			Values: map[sensor.Metric]*float64{sensor.MetricCOD: ptr(20.0), sensor.MetricTSS: nil},
			Counts: map[sensor.Metric]int64{sensor.MetricCOD: 10},
		}
	}
	// readings at :15 .. :19
	points[0].Values[sensor.MetricCOD] = ptr(5.0)
	points[0].Values[sensor.MetricTSS] = ptr(3.0)
	points[0].Counts = map[sensor.Metric]int64{sensor.MetricCOD: 5, sensor.MetricTSS: 5}

	mockRepo := new(MockSensorRepository)
	mockRepo.On("Bucketed", mock.Anything, sensor.T500, start, end, int64(10)).Return(points, nil)

	svc := service.NewSensorService(mockRepo)
	got, err := svc.Series(context.Background(), "t500", "2025-01-01T00:00:15Z", "2025-01-01T00:50:15Z")

	require.NoError(t, err)
	assert.Equal(t, int64(10), got.BucketSec)
	require.Len(t, got.Rows, service.MaxPoints)

	head := got.Rows[0]
	assert.True(t, first.Add(10*time.Second).Equal(head.Start))
	assert.InDelta(t, 15.0, *head.Values[sensor.MetricCOD], 1e-9)
	assert.Equal(t, int64(15), head.Counts[sensor.MetricCOD])
	require.NotNil(t, head.Values[sensor.MetricTSS])
	assert.Equal(t, 3.0, *head.Values[sensor.MetricTSS])
	assert.Equal(t, 20.0, *points[1].Values[sensor.MetricCOD], "repository rows are not modified")
}

func TestSensorService_SeriesValidation(t *testing.T) {
	tests := []struct {
		name       string
		table      string
		start, end string
		wantField  string
	}{
		{name: "unknown tank", table: "t900", start: "2025-01-01", end: "2025-01-02", wantField: "table"},
		{name: "missing start", table: "t500", end: "2025-01-02", wantField: "start"},
		{name: "bad end", table: "t500", start: "2025-01-01", end: "yesterday", wantField: "end"},
		{name: "reversed", table: "t500", start: "2025-01-03", end: "2025-01-02T00:00:00Z", wantField: "end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockSensorRepository)
			svc := service.NewSensorService(mockRepo)

			_, err := svc.Series(context.Background(), tt.table, tt.start, tt.end)

			assert.True(t, assertValidation(err, tt.wantField), "got %v", err)
			mockRepo.AssertNotCalled(t, "Bucketed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSensorService_Latest(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	current := &sensor.Reading{Tank: sensor.T500, ID: 2, Timestamp: now}
	past := &sensor.Reading{Tank: sensor.T500, ID: 1, Timestamp: now.Add(-24 * time.Hour)}

	tests := []struct {
		name     string
		agoHours string
		wantAt   time.Time
		wantAgo  float64
	}{
		{name: "default twelve hours", agoHours: "", wantAt: now.Add(-12 * time.Hour), wantAgo: 12},
		{name: "caller passes 24", agoHours: "24", wantAt: now.Add(-24 * time.Hour), wantAgo: 24},
		{name: "fractional hours", agoHours: "1.5", wantAt: now.Add(-90 * time.Minute), wantAgo: 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockSensorRepository)
			mockRepo.On("Latest", mock.Anything, sensor.T500).Return(current, nil)
			mockRepo.On("AtOrBefore", mock.Anything, sensor.T500, tt.wantAt).Return(past, nil)

			svc := service.NewSensorService(mockRepo, fixedClock(now))
			got, err := svc.Latest(context.Background(), "t500", tt.agoHours)

			require.NoError(t, err)
			assert.Equal(t, current, got.Current)
			assert.Equal(t, past, got.Past)
			assert.Equal(t, tt.wantAgo, got.AgoHours)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestSensorService_LatestValidation(t *testing.T) {
	mockRepo := new(MockSensorRepository)
	svc := service.NewSensorService(mockRepo)

	_, err := svc.Latest(context.Background(), "t500", "-3")
	assert.True(t, assertValidation(err, "agoHours"))

	_, err = svc.Latest(context.Background(), "", "24")
	assert.True(t, assertValidation(err, "table"))

	mockRepo.AssertNotCalled(t, "Latest", mock.Anything, mock.Anything)
}

func TestSensorService_Recent(t *testing.T) {
	readings := []sensor.Reading{{Tank: sensor.T500, ID: 1}}
	mockRepo := new(MockSensorRepository)
	mockRepo.On("Recent", mock.Anything, sensor.T500, 10).Return(readings, nil)

	svc := service.NewSensorService(mockRepo)
	got, err := svc.Recent(context.Background(), "t500", "")
	require.NoError(t, err)
	assert.Equal(t, readings, got)

	_, err = svc.Recent(context.Background(), "t500", "1000")
	assert.True(t, assertValidation(err, "limit"))
	mockRepo.AssertExpectations(t)
}

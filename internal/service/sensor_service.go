package service

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"wwtpDashboard/internal/logger"
	"wwtpDashboard/internal/models/sensor"

	"go.uber.org/zap"
)

const (
	MaxPoints       = 300
	DefaultAgoHours = 12.0
	DefaultRecent   = 10
	maxAgoHours     = 24 * 366
)

type LatestResult struct {
	Current  *sensor.Reading `json:"current"`
	Past     *sensor.Reading `json:"past"`
	AgoHours float64         `json:"agoHours"`
}

type SeriesResult struct {
	Table     string               `json:"table"`
	Cols      []string             `json:"cols"`
	BucketSec int64                `json:"bucketSec"`
	Rows      []sensor.BucketPoint `json:"rows"`
}

type SensorService struct {
	repo SensorRepository
	now  func() time.Time
}

func NewSensorService(repo SensorRepository, opts ...Option) *SensorService {
	o := applyOptions(opts)
	return &SensorService{repo: repo, now: o.now}
}

func lookupTank(table string) (sensor.Tank, error) {
	tank, ok := sensor.LookupTank(table)
	if !ok {
		return sensor.Tank{}, NewValidationError("table", "must be t500 or t700")
	}
	return tank, nil
}

// BucketSeconds sizes buckets so that [start, end] spans at most MaxPoints
// of them: ceil(rangeSeconds / MaxPoints), never below one second.
func BucketSeconds(start, end time.Time) int64 {
	rangeSec := int64((end.Sub(start) + time.Second - 1) / time.Second)
	if rangeSec < 1 {
		rangeSec = 1
	}
	return max(1, (rangeSec+MaxPoints-1)/MaxPoints)
}

// Latest returns the newest reading and the newest one at or before
// now - agoHours. An empty agoHours means DefaultAgoHours.
func (s *SensorService) Latest(ctx context.Context, table, agoHours string) (*LatestResult, error) {
	tank, err := lookupTank(table)
	if err != nil {
		return nil, err
	}

	hours := DefaultAgoHours
	if strings.TrimSpace(agoHours) != "" {
		hours, err = strconv.ParseFloat(strings.TrimSpace(agoHours), 64)
		if err != nil || hours <= 0 || hours > maxAgoHours {
			return nil, NewValidationError("agoHours", "must be a positive number of hours")
		}
	}

	current, err := s.repo.Latest(ctx, tank)
	if err != nil {
		return nil, fmt.Errorf("latest reading: %w", err)
	}

	at := s.now().UTC().Add(-time.Duration(hours * float64(time.Hour)))
	past, err := s.repo.AtOrBefore(ctx, tank, at)
	if err != nil {
		return nil, fmt.Errorf("past reading: %w", err)
	}

	return &LatestResult{Current: current, Past: past, AgoHours: hours}, nil
}

// Series averages readings in [start, end] into at most MaxPoints buckets.
func (s *SensorService) Series(ctx context.Context, table, start, end string) (*SeriesResult, error) {
	tank, err := lookupTank(table)
	if err != nil {
		return nil, err
	}
	from, to, err := parseRange(start, end)
	if err != nil {
		return nil, err
	}

	bucketSec := BucketSeconds(from, to)
	rows, err := s.repo.Bucketed(ctx, tank, from, to, bucketSec)
	if err != nil {
		return nil, fmt.Errorf("bucketed series: %w", err)
	}

	if len(rows) > MaxPoints {
		logger.Debug("Service: folding leading buckets",
			zap.String("tank", tank.Name),
			zap.Int("rows", len(rows)))
		rows = foldLeading(rows)
	}

	return &SeriesResult{
		Table:     tank.Name,
		Cols:      tank.MetricNames(),
		BucketSec: bucketSec,
		Rows:      rows,
	}, nil
}

// foldLeading merges leading buckets into their successor until at most
// MaxPoints remain. Epoch alignment of an inclusive range can produce one
// partial bucket ahead of the first full one; its samples are kept.
func foldLeading(rows []sensor.BucketPoint) []sensor.BucketPoint {
	for len(rows) > MaxPoints {
		head := rows[1]
		head.Values = maps.Clone(head.Values)
		head.Counts = maps.Clone(head.Counts)
		head.Merge(rows[0])

		folded := make([]sensor.BucketPoint, 0, len(rows)-1)
		folded = append(folded, head)
		rows = append(folded, rows[2:]...)
	}
	return rows
}

// Recent returns the last readings of a tank, oldest first.
func (s *SensorService) Recent(ctx context.Context, table, limit string) ([]sensor.Reading, error) {
	tank, err := lookupTank(table)
	if err != nil {
		return nil, err
	}

	n := DefaultRecent
	if strings.TrimSpace(limit) != "" {
		n, err = strconv.Atoi(strings.TrimSpace(limit))
		if err != nil || n <= 0 || n > MaxPoints {
			return nil, NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", MaxPoints))
		}
	}

	readings, err := s.repo.Recent(ctx, tank, n)
	if err != nil {
		return nil, fmt.Errorf("recent readings: %w", err)
	}
	return readings, nil
}

// parseRange validates an inclusive range. A date-only end covers the
// whole day.
func parseRange(start, end string) (time.Time, time.Time, error) {
	if strings.TrimSpace(start) == "" {
		return time.Time{}, time.Time{}, NewValidationError("start", "required")
	}
	if strings.TrimSpace(end) == "" {
		return time.Time{}, time.Time{}, NewValidationError("end", "required")
	}

	from, err := parseTimestamp(start)
	if err != nil {
		return time.Time{}, time.Time{}, NewValidationError("start", "invalid timestamp")
	}
	to, err := parseTimestamp(end)
	if err != nil {
		return time.Time{}, time.Time{}, NewValidationError("end", "invalid timestamp")
	}
	if isDateOnly(end) {
		to = endOfDay(to)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, NewValidationError("end", "must not be before start")
	}
	return from, to, nil
}

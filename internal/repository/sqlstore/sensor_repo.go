package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"wwtpDashboard/internal/database"
	"wwtpDashboard/internal/logger"
	"wwtpDashboard/internal/models/sensor"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type SensorStorage struct {
	db *database.DB
}

func NewSensorStorage(db *database.DB) *SensorStorage {
	return &SensorStorage{db: db}
}

func readingColumns(tank sensor.Tank) string {
	cols := []string{`"id"`, `"timestamp"`}
	for _, m := range tank.Metrics {
		cols = append(cols, `"`+string(m)+`"`)
	}
	return strings.Join(cols, ", ")
}

func scanReadings(rows *sqlx.Rows, tank sensor.Tank) ([]sensor.Reading, error) {
	defer rows.Close()

	readings := []sensor.Reading{}
	for rows.Next() {
		r := sensor.Reading{Tank: tank}
		dest := []any{&r.ID, &r.Timestamp}
		for _, m := range tank.Metrics {
			dest = append(dest, r.Value(m))
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		r.Timestamp = r.Timestamp.UTC()
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func (s *SensorStorage) one(ctx context.Context, tank sensor.Tank, where string, args ...any) (*sensor.Reading, error) {
	d := s.db.Dialect()
	query := fmt.Sprintf(`SELECT %s%s FROM "%s"%s ORDER BY "timestamp" DESC%s`,
		d.Top(1), readingColumns(tank), tank.Name, where, d.Limit(1))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	readings, err := scanReadings(rows, tank)
	if err != nil || len(readings) == 0 {
		return nil, err
	}
	return &readings[0], nil
}

// Latest returns the newest reading, or nil when the table is empty.
func (s *SensorStorage) Latest(ctx context.Context, tank sensor.Tank) (*sensor.Reading, error) {
	r, err := s.one(ctx, tank, "")
	if err != nil {
		logger.Error("Repository: latest reading failed", err, zap.String("tank", tank.Name))
		return nil, fmt.Errorf("latest %s: %w", tank.Name, err)
	}
	return r, nil
}

// AtOrBefore returns the newest reading taken no later than at.
func (s *SensorStorage) AtOrBefore(ctx context.Context, tank sensor.Tank, at time.Time) (*sensor.Reading, error) {
	r, err := s.one(ctx, tank, ` WHERE "timestamp" <= ?`, at)
	if err != nil {
		logger.Error("Repository: past reading failed", err, zap.String("tank", tank.Name))
		return nil, fmt.Errorf("reading of %s at %s: %w", tank.Name, at.Format(time.RFC3339), err)
	}
	return r, nil
}

// Recent returns the last n readings in ascending time order.
func (s *SensorStorage) Recent(ctx context.Context, tank sensor.Tank, n int) ([]sensor.Reading, error) {
	d := s.db.Dialect()
	query := fmt.Sprintf(`SELECT %s%s FROM "%s" ORDER BY "timestamp" DESC%s`,
		d.Top(n), readingColumns(tank), tank.Name, d.Limit(n))

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: recent readings failed", err, zap.String("tank", tank.Name))
		return nil, fmt.Errorf("recent %s: %w", tank.Name, err)
	}
	readings, err := scanReadings(rows, tank)
	if err != nil {
		return nil, fmt.Errorf("recent %s: %w", tank.Name, err)
	}
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	return readings, nil
}

// Range returns every reading in [start, end] ascending.
func (s *SensorStorage) Range(ctx context.Context, tank sensor.Tank, start, end time.Time) ([]sensor.Reading, error) {
	query := fmt.Sprintf(`SELECT %s FROM "%s" WHERE "timestamp" BETWEEN ? AND ? ORDER BY "timestamp" ASC`,
		readingColumns(tank), tank.Name)

	rows, err := s.db.Query(ctx, query, start, end)
	if err != nil {
		logger.Error("Repository: range readings failed", err, zap.String("tank", tank.Name))
		return nil, fmt.Errorf("range %s: %w", tank.Name, err)
	}
	readings, err := scanReadings(rows, tank)
	if err != nil {
		return nil, fmt.Errorf("range %s: %w", tank.Name, err)
	}
	return readings, nil
}

// Bucketed averages each metric over epoch-aligned buckets of bucketSec
// seconds. Buckets without rows are absent from the result.
func (s *SensorStorage) Bucketed(ctx context.Context, tank sensor.Tank, start, end time.Time, bucketSec int64) ([]sensor.BucketPoint, error) {
	inner := []string{s.db.Dialect().BucketExpr(`"timestamp"`) + ` AS "bucket"`}
	outer := []string{`"b"."bucket" AS "bucket"`}
	for _, m := range tank.Metrics {
		inner = append(inner, `"`+string(m)+`"`)
		outer = append(outer, fmt.Sprintf(`AVG("b"."%s") AS "%s"`, m, m))
	}
	for _, m := range tank.Metrics {
		outer = append(outer, fmt.Sprintf(`COUNT("b"."%s") AS "n_%s"`, m, m))
	}

	query := fmt.Sprintf(`SELECT %s FROM (
			SELECT %s FROM "%s" WHERE "timestamp" BETWEEN ? AND ?
		) AS "b"
		GROUP BY "b"."bucket"
		ORDER BY "b"."bucket" ASC`,
		strings.Join(outer, ", "), strings.Join(inner, ", "), tank.Name)

	started := time.Now()
	rows, err := s.db.Query(ctx, query, bucketSec, bucketSec, start, end)
	if err != nil {
		logger.Error("Repository: bucketed series failed", err, zap.String("tank", tank.Name))
		return nil, fmt.Errorf("series %s: %w", tank.Name, err)
	}
	defer rows.Close()

	points := []sensor.BucketPoint{}
	for rows.Next() {
		var bucket float64
		avgs := make([]sql.NullFloat64, len(tank.Metrics))
		counts := make([]int64, len(tank.Metrics))
		dest := []any{&bucket}
		for i := range avgs {
			dest = append(dest, &avgs[i])
		}
		for i := range counts {
			dest = append(dest, &counts[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("series %s: %w", tank.Name, err)
		}

		p := sensor.BucketPoint{
			Tank:   tank,
			Start:  time.Unix(int64(bucket), 0).UTC(),
			Values: make(map[sensor.Metric]*float64, len(tank.Metrics)),
			Counts: make(map[sensor.Metric]int64, len(tank.Metrics)),
		}
		for i, m := range tank.Metrics {
			p.Counts[m] = counts[i]
			if avgs[i].Valid {
				v := avgs[i].Float64
				p.Values[m] = &v
			} else {
				p.Values[m] = nil
			}
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("series %s: %w", tank.Name, err)
	}

	logger.Debug("Repository: bucketed series",
		zap.String("tank", tank.Name),
		zap.Int64("bucket_sec", bucketSec),
		zap.Int("points", len(points)),
		zap.Duration("ms", time.Since(started)))
	return points, nil
}

// Insert appends one reading; only the tank's own metrics are written.
func (s *SensorStorage) Insert(ctx context.Context, r sensor.Reading) error {
	cols := []string{"timestamp"}
	args := []any{r.Timestamp}
	for _, m := range r.Tank.Metrics {
		cols = append(cols, string(m))
		args = append(args, *r.Value(m))
	}

	if _, err := s.db.InsertID(ctx, r.Tank.Name, cols, args...); err != nil {
		logger.Error("Repository: insert reading failed", err, zap.String("tank", r.Tank.Name))
		return fmt.Errorf("insert %s reading: %w", r.Tank.Name, err)
	}
	return nil
}

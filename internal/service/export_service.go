package service

import (
	"context"
	"fmt"
	"strings"

	"wwtpDashboard/internal/logger"
	"wwtpDashboard/internal/spreadsheet"

	"go.uber.org/zap"
)

const timestampLayout = "2006-01-02 15:04:05"

var taskExportHeader = []string{"ID", "Title", "Description", "Due Date", "Status", "PIC Lapangan", "PIC Maintenance"}

type ExportService struct {
	tasks   TaskRepository
	sensors SensorRepository
}

func NewExportService(tasks TaskRepository, sensors SensorRepository) *ExportService {
	return &ExportService{tasks: tasks, sensors: sensors}
}

// Sensors exports every reading of a tank in [start, end].
func (s *ExportService) Sensors(ctx context.Context, table, start, end string) (*spreadsheet.File, error) {
	tank, err := lookupTank(table)
	if err != nil {
		return nil, err
	}
	from, to, err := parseRange(start, end)
	if err != nil {
		return nil, err
	}

	readings, err := s.sensors.Range(ctx, tank, from, to)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", tank.Name, err)
	}

	header := append([]string{"id", "timestamp"}, tank.MetricNames()...)
	header = append(header, "formatted_timestamp")

	rows := make([][]any, len(readings))
	for i := range readings {
		r := &readings[i]
		row := []any{r.ID, r.Timestamp}
		for _, m := range tank.Metrics {
			row = append(row, metricCell(*r.Value(m)))
		}
		rows[i] = append(row, r.Timestamp.UTC().Format(timestampLayout))
	}

	data, err := spreadsheet.Write(spreadsheet.Sheet{
		Name:   tank.Label + " Export",
		Header: header,
		Rows:   rows,
	})
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", tank.Name, err)
	}

	logger.Info("Service: sensor export built",
		zap.String("tank", tank.Name),
		zap.Int("rows", len(rows)))
	return &spreadsheet.File{
		Filename: fmt.Sprintf("%s %s s.d %s.xlsx", tank.Name, strings.TrimSpace(start), strings.TrimSpace(end)),
		Data:     data,
	}, nil
}

// Tasks exports tasks due between two calendar dates, both inclusive.
func (s *ExportService) Tasks(ctx context.Context, start, end string) (*spreadsheet.File, error) {
	from, err := parseCalendarDate(start)
	if err != nil {
		return nil, NewValidationError("start", "must be YYYY-MM-DD")
	}
	to, err := parseCalendarDate(end)
	if err != nil {
		return nil, NewValidationError("end", "must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, NewValidationError("end", "must not be before start")
	}

	tasks, err := s.tasks.DueBetween(ctx, from, endOfDay(to))
	if err != nil {
		return nil, fmt.Errorf("export tasks: %w", err)
	}

	rows := make([][]any, len(tasks))
	for i, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.UTC().Format(dateLayout)
		}
		rows[i] = []any{
			t.ID,
			t.Title,
			deref(t.Description),
			due,
			t.Status.Display(),
			deref(t.PicLapangan),
			deref(t.PicMaintenance),
		}
	}

	data, err := spreadsheet.Write(spreadsheet.Sheet{
		Name:   "Tasks",
		Header: taskExportHeader,
		Rows:   rows,
	})
	if err != nil {
		return nil, fmt.Errorf("export tasks: %w", err)
	}

	logger.Info("Service: task export built", zap.Int("rows", len(rows)))
	return &spreadsheet.File{
		Filename: fmt.Sprintf("tasks %s s.d %s.xlsx", strings.TrimSpace(start), strings.TrimSpace(end)),
		Data:     data,
	}, nil
}

func metricCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

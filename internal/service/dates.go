package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wwtpDashboard/internal/spreadsheet"
)

const dateLayout = "2006-01-02"

var (
	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		dateLayout,
	}
	calendarDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// parseTimestamp accepts ISO-8601 style input; values without an offset
// are taken as UTC. The result is UTC truncated to whole seconds.
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

func isDateOnly(raw string) bool {
	return calendarDate.MatchString(strings.TrimSpace(raw))
}

// parseCalendarDate validates a strict YYYY-MM-DD value.
func parseCalendarDate(raw string) (time.Time, error) {
	if !isDateOnly(raw) {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q", raw)
	}
	return time.ParseInLocation(dateLayout, strings.TrimSpace(raw), time.UTC)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return truncateDay(t).Add(24*time.Hour - time.Second)
}

// importDate reads a due date from an imported cell: a date string or a
// spreadsheet serial number. Anything else yields nil.
func importDate(v any) *time.Time {
	var serial float64
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		serial = val
	case int:
		serial = float64(val)
	case int64:
		serial = float64(val)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		if t, err := parseTimestamp(s); err == nil {
			d := truncateDay(t)
			return &d
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		serial = f
	default:
		return nil
	}

	if serial <= 0 {
		return nil
	}
	t, err := spreadsheet.SerialToTime(serial)
	if err != nil {
		return nil
	}
	d := truncateDay(t)
	return &d
}

// cellString renders an imported cell as trimmed text.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

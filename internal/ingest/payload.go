package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wwtpDashboard/internal/models/sensor"
)

var ErrEmptyPayload = errors.New("ingest: payload has no metric values")

// payloadTimeLayouts are tried in order; values carry no offset and are
// read in the configured timezone.
var payloadTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// number accepts a JSON number, a numeric string or null.
type number struct {
	value *float64
}

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		n.value = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			n.value = nil
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		n.value = &f
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	n.value = &f
	return nil
}

// payload is the field device message: pH arrives as "ph" and
// temperature as "suhu".
type payload struct {
	COD         number `json:"cod"`
	TSS         number `json:"tss"`
	PH          number `json:"ph"`
	Temperature number `json:"suhu"`
	Timestamp   string `json:"timestamp"`
}

// Decode maps a device message onto a reading of tank. Metrics the tank
// does not record are ignored; a missing timestamp means receivedAt.
func Decode(tank sensor.Tank, raw []byte, loc *time.Location, receivedAt time.Time) (sensor.Reading, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return sensor.Reading{}, fmt.Errorf("decode payload: %w", err)
	}

	r := sensor.Reading{Tank: tank, Timestamp: receivedAt.UTC().Truncate(time.Second)}
	if ts := strings.TrimSpace(p.Timestamp); ts != "" {
		t, err := parsePayloadTime(ts, loc)
		if err != nil {
			return sensor.Reading{}, err
		}
		r.Timestamp = t
	}

	values := map[sensor.Metric]*float64{
		sensor.MetricCOD:         p.COD.value,
		sensor.MetricTSS:         p.TSS.value,
		sensor.MetricPH:          p.PH.value,
		sensor.MetricTemperature: p.Temperature.value,
	}

	filled := false
	for _, m := range tank.Metrics {
		if v := values[m]; v != nil {
			*r.Value(m) = v
			filled = true
		}
	}
	if !filled {
		return sensor.Reading{}, ErrEmptyPayload
	}
	return r, nil
}

func parsePayloadTime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range payloadTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

package sensor

import (
	"encoding/json"
	"strings"
	"time"
)

type Metric string

const (
	MetricCOD         Metric = "cod"
	MetricTSS         Metric = "tss"
	MetricPH          Metric = "pH"
	MetricTemperature Metric = "temperature"
)

// Tank is one treatment stage with its own table and metric set.
type Tank struct {
	Name    string
	Label   string
	Metrics []Metric
}

var (
	T500 = Tank{Name: "t500", Label: "T500", Metrics: []Metric{MetricCOD, MetricTSS}}
	T700 = Tank{Name: "t700", Label: "T700", Metrics: []Metric{MetricCOD, MetricPH, MetricTemperature, MetricTSS}}
)

func Tanks() []Tank {
	return []Tank{T500, T700}
}

func LookupTank(name string) (Tank, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case T500.Name:
		return T500, true
	case T700.Name:
		return T700, true
	}
	return Tank{}, false
}

func (t Tank) Has(m Metric) bool {
	for _, tm := range t.Metrics {
		if tm == m {
			return true
		}
	}
	return false
}

func (t Tank) MetricNames() []string {
	names := make([]string, len(t.Metrics))
	for i, m := range t.Metrics {
		names[i] = string(m)
	}
	return names
}

type Reading struct {
	Tank        Tank
	ID          int64
	Timestamp   time.Time
	COD         *float64
	TSS         *float64
	PH          *float64
	Temperature *float64
}

// Value returns the metric pointer slot, nil for metrics outside the reading's tank.
func (r *Reading) Value(m Metric) **float64 {
	if !r.Tank.Has(m) {
		return nil
	}
	switch m {
	case MetricCOD:
		return &r.COD
	case MetricTSS:
		return &r.TSS
	case MetricPH:
		return &r.PH
	case MetricTemperature:
		return &r.Temperature
	}
	return nil
}

func (r Reading) MarshalJSON() ([]byte, error) {
	out := orderedObject{{"id", r.ID}, {"timestamp", r.Timestamp}}
	for _, m := range r.Tank.Metrics {
		out = append(out, kv{string(m), *r.Value(m)})
	}
	return out.MarshalJSON()
}

// BucketPoint is the average of each metric over one fixed-width bucket.
// Counts holds the number of non-null samples behind each average and is
// not serialised.
type BucketPoint struct {
	Tank   Tank
	Start  time.Time
	Values map[Metric]*float64
	Counts map[Metric]int64
}

// Merge folds other into p, weighting each average by its sample count.
func (p *BucketPoint) Merge(other BucketPoint) {
	if p.Values == nil {
		p.Values = make(map[Metric]*float64, len(other.Values))
	}
	if p.Counts == nil {
		p.Counts = make(map[Metric]int64, len(other.Counts))
	}
	for m, ov := range other.Values {
		if ov == nil {
			continue
		}
		on := max(other.Counts[m], 1)
		pv := p.Values[m]
		if pv == nil {
			v := *ov
			p.Values[m] = &v
			p.Counts[m] = on
			continue
		}
		pn := max(p.Counts[m], 1)
		v := (*pv*float64(pn) + *ov*float64(on)) / float64(pn+on)
		p.Values[m] = &v
		p.Counts[m] = pn + on
	}
}

func (p BucketPoint) MarshalJSON() ([]byte, error) {
	out := orderedObject{{"t", p.Start}}
	for _, m := range p.Tank.Metrics {
		out = append(out, kv{string(m), p.Values[m]})
	}
	return out.MarshalJSON()
}

type kv struct {
	key   string
	value any
}

// orderedObject keeps metric keys in tank column order when encoded.
type orderedObject []kv

func (o orderedObject) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, f := range o {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          int64     `json:"id"`
		Timestamp   time.Time `json:"timestamp"`
		COD         *float64  `json:"cod"`
		TSS         *float64  `json:"tss"`
		PH          *float64  `json:"pH"`
		Temperature *float64  `json:"temperature"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID, r.Timestamp = raw.ID, raw.Timestamp
	r.COD, r.TSS, r.PH, r.Temperature = raw.COD, raw.TSS, raw.PH, raw.Temperature
	return nil
}

func (p *BucketPoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Values = make(map[Metric]*float64, len(raw))
	for k, v := range raw {
		if k == "t" {
			if err := json.Unmarshal(v, &p.Start); err != nil {
				return err
			}
			continue
		}
		var f *float64
		if err := json.Unmarshal(v, &f); err != nil {
			return err
		}
		p.Values[Metric(k)] = f
	}
	return nil
}

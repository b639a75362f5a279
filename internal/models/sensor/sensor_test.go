package sensor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestBucketPoint_Merge(t *testing.T) {
	tests := []struct {
		name      string
		into      BucketPoint
		other     BucketPoint
		wantCOD   *float64
		wantCount int64
	}{
		{
			name:      "weighted by counts",
			into:      BucketPoint{Values: map[Metric]*float64{MetricCOD: f(20)}, Counts: map[Metric]int64{MetricCOD: 10}},
			other:     BucketPoint{Values: map[Metric]*float64{MetricCOD: f(5)}, Counts: map[Metric]int64{MetricCOD: 5}},
			wantCOD:   f(15),
			wantCount: 15,
		},
		{
			name:      "fills a null average",
			into:      BucketPoint{Values: map[Metric]*float64{MetricCOD: nil}},
			other:     BucketPoint{Values: map[Metric]*float64{MetricCOD: f(7)}, Counts: map[Metric]int64{MetricCOD: 3}},
			wantCOD:   f(7),
			wantCount: 3,
		},
		{
			name:    "null other leaves value",
			into:    BucketPoint{Values: map[Metric]*float64{MetricCOD: f(9)}, Counts: map[Metric]int64{MetricCOD: 2}},
			other:   BucketPoint{Values: map[Metric]*float64{MetricCOD: nil}},
			wantCOD: f(9), wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.into
			p.Merge(tt.other)
			require.NotNil(t, p.Values[MetricCOD])
			assert.InDelta(t, *tt.wantCOD, *p.Values[MetricCOD], 1e-9)
			assert.Equal(t, tt.wantCount, p.Counts[MetricCOD])
		})
	}
}

func TestBucketPoint_MarshalOmitsCounts(t *testing.T) {
	p := BucketPoint{
		Tank:   T500,
		Start:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Values: map[Metric]*float64{MetricCOD: f(1.5)},
		Counts: map[Metric]int64{MetricCOD: 4},
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"2025-01-01T00:00:00Z","cod":1.5,"tss":null}`, string(data))
}

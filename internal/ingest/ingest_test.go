package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wwtpDashboard/internal/config"
	"wwtpDashboard/internal/models/sensor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
	mu   sync.Mutex
	seen []sensor.Reading
}

func (m *MockStore) Insert(ctx context.Context, r sensor.Reading) error {
	m.mu.Lock()
	m.seen = append(m.seen, r)
	m.mu.Unlock()
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

// fakeMessage satisfies mqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func f(v float64) *float64 { return &v }

func TestDecode(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	received := time.Date(2025, 3, 1, 8, 0, 0, 500, time.UTC)

	tests := []struct {
		name    string
		tank    sensor.Tank
		payload string
		loc     *time.Location
		want    sensor.Reading
		wantErr bool
	}{
		{
			name:    "t700 renames ph and suhu",
			tank:    sensor.T700,
			payload: `{"cod":41.2,"tss":"12.5","ph":7.1,"suhu":29.4,"timestamp":"2025-03-01T14:30:00"}`,
			loc:     jakarta,
			want: sensor.Reading{
				Tank:        sensor.T700,
				Timestamp:   time.Date(2025, 3, 1, 7, 30, 0, 0, time.UTC),
				COD:         f(41.2),
				TSS:         f(12.5),
				PH:          f(7.1),
				Temperature: f(29.4),
			},
		},
		{
			name:    "t500 ignores metrics it does not record",
			tank:    sensor.T500,
			payload: `{"cod":30,"ph":7.0,"suhu":28}`,
			loc:     time.UTC,
			want: sensor.Reading{
				Tank:      sensor.T500,
				Timestamp: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
				COD:       f(30),
			},
		},
		{
			name:    "explicit offset wins over timezone",
			tank:    sensor.T500,
			payload: `{"tss":null,"cod":1,"timestamp":"2025-03-01T10:00:00+02:00"}`,
			loc:     jakarta,
			want: sensor.Reading{
				Tank:      sensor.T500,
				Timestamp: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
				COD:       f(1),
			},
		},
		{name: "not json", tank: sensor.T500, payload: `cod=1`, wantErr: true},
		{name: "no metrics", tank: sensor.T500, payload: `{"ph":7}`, wantErr: true},
		{name: "bad number", tank: sensor.T500, payload: `{"cod":"high"}`, wantErr: true},
		{name: "bad timestamp", tank: sensor.T500, payload: `{"cod":1,"timestamp":"yesterday"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.tank, []byte(tt.payload), tt.loc, received)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(config.MQTTConfig{T500Topic: "a", Timezone: "Mars/Olympus"}, new(MockStore))
	assert.Error(t, err)

	_, err = New(config.MQTTConfig{}, new(MockStore))
	assert.Error(t, err)
}

func newTestIngestor(t *testing.T, store Store, queue int) *Ingestor {
	t.Helper()
	i, err := New(config.MQTTConfig{
		T500Topic: "wwtp/t500/data",
		T700Topic: "wwtp/t700/data",
		Timezone:  "UTC",
		QueueSize: queue,
	}, store)
	require.NoError(t, err)
	i.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }
	return i
}

func TestIngestor_WriterStoresQueuedReadings(t *testing.T) {
	store := new(MockStore)
	store.On("Insert", mock.Anything, mock.MatchedBy(func(r sensor.Reading) bool {
		return r.Tank.Name == "t700"
	})).Return(nil)
	store.On("Insert", mock.Anything, mock.MatchedBy(func(r sensor.Reading) bool {
		return r.Tank.Name == "t500"
	})).Return(errors.New("disk full"))

	i := newTestIngestor(t, store, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		i.writer(ctx)
	}()

	i.onMessage(nil, fakeMessage{topic: "wwtp/t700/data", payload: []byte(`{"cod":1,"ph":7}`)})
	i.onMessage(nil, fakeMessage{topic: "wwtp/t500/data", payload: []byte(`{"cod":2}`)})
	i.onMessage(nil, fakeMessage{topic: "wwtp/t500/data", payload: []byte(`garbage`)})
	i.onMessage(nil, fakeMessage{topic: "other/topic", payload: []byte(`{"cod":3}`)})

	i.Stop()

	assert.Equal(t, 2, store.count())
	store.AssertExpectations(t)
	assert.False(t, i.enqueue("wwtp/t500/data", []byte(`{"cod":4}`)), "enqueue after stop")
}

func TestIngestor_StopDrainsAfterCancel(t *testing.T) {
	store := new(MockStore)
	store.On("Insert", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything).Run(func(mock.Arguments) {
		time.Sleep(20 * time.Millisecond)
	}).Return(nil)

	i := newTestIngestor(t, store, 16)
	ctx, cancel := context.WithCancel(context.Background())
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		i.writer(ctx)
	}()

	for n := 0; n < 10; n++ {
		require.True(t, i.enqueue("wwtp/t500/data", []byte(`{"cod":1}`)))
	}

	// shutdown order of the service: the signal context goes first
	cancel()
	i.Stop()

	assert.Equal(t, 10, store.count())
	store.AssertNumberOfCalls(t, "Insert", 10)
}

func TestIngestor_DropsWhenQueueFull(t *testing.T) {
	i := newTestIngestor(t, new(MockStore), 1)

	assert.True(t, i.enqueue("wwtp/t500/data", []byte(`{"cod":1}`)))
	assert.False(t, i.enqueue("wwtp/t500/data", []byte(`{"cod":2}`)))
	assert.Len(t, i.msgCh, 1)
}

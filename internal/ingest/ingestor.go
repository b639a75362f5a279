package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"wwtpDashboard/internal/config"
	"wwtpDashboard/internal/logger"
	"wwtpDashboard/internal/models/sensor"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	subscribeQoS  = 1
	insertTimeout = 5 * time.Second
)

// Store persists decoded readings.
type Store interface {
	Insert(ctx context.Context, r sensor.Reading) error
}

// Ingestor subscribes to the tank topics and writes every decoded reading
// through a single writer goroutine.
type Ingestor struct {
	cfg    config.MQTTConfig
	store  Store
	loc    *time.Location
	topics map[string]sensor.Tank
	now    func() time.Time

	client mqtt.Client
	msgCh  chan sensor.Reading
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func New(cfg config.MQTTConfig, store Store) (*Ingestor, error) {
	tz := strings.TrimSpace(cfg.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("mqtt timezone %q: %w", tz, err)
	}

	queue := cfg.QueueSize
	if queue <= 0 {
		queue = 256
	}

	topics := make(map[string]sensor.Tank, 2)
	if cfg.T500Topic != "" {
		topics[cfg.T500Topic] = sensor.T500
	}
	if cfg.T700Topic != "" {
		topics[cfg.T700Topic] = sensor.T700
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("mqtt: no topics configured")
	}

	return &Ingestor{
		cfg:    cfg,
		store:  store,
		loc:    loc,
		topics: topics,
		now:    time.Now,
		msgCh:  make(chan sensor.Reading, queue),
	}, nil
}

// Start connects to the broker and starts the writer. Subscriptions are
// renewed on every reconnect.
func (i *Ingestor) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(i.cfg.Broker).
		SetClientID(i.cfg.ClientID).
		SetOrderMatters(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(true)

	if i.cfg.Username != "" {
		opts.SetUsername(i.cfg.Username)
		opts.SetPassword(i.cfg.Password)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Error("Ingest: connection lost", err, zap.String("broker", i.cfg.Broker))
	}
	opts.OnConnect = func(c mqtt.Client) {
		for topic := range i.topics {
			logger.Info("Ingest: subscribing", zap.String("topic", topic))
			if token := c.Subscribe(topic, subscribeQoS, i.onMessage); token.Wait() && token.Error() != nil {
				logger.Error("Ingest: subscribe failed", token.Error(), zap.String("topic", topic))
			}
		}
	}

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		i.writer(ctx)
	}()

	i.client = mqtt.NewClient(opts)
	if token := i.client.Connect(); token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", i.cfg.Broker, token.Error())
	}
	logger.Info("Ingest: started", zap.String("broker", i.cfg.Broker), zap.Int("topics", len(i.topics)))
	return nil
}

// Stop disconnects, drains the queue and waits for the writer.
func (i *Ingestor) Stop() {
	if i.client != nil && i.client.IsConnected() {
		i.client.Disconnect(500)
	}

	i.mu.Lock()
	if !i.stopped {
		i.stopped = true
		close(i.msgCh)
	}
	i.mu.Unlock()

	i.wg.Wait()
	logger.Info("Ingest: stopped")
}

func (i *Ingestor) IsConnected() bool {
	return i.client != nil && i.client.IsConnected()
}

func (i *Ingestor) onMessage(_ mqtt.Client, m mqtt.Message) {
	i.enqueue(m.Topic(), m.Payload())
}

// enqueue decodes a message and queues it without blocking the network
// goroutine. Bad payloads and overflow are logged and dropped.
func (i *Ingestor) enqueue(topic string, raw []byte) bool {
	tank, ok := i.topics[topic]
	if !ok {
		logger.Warn("Ingest: message on unknown topic", zap.String("topic", topic))
		return false
	}

	reading, err := Decode(tank, raw, i.loc, i.now())
	if err != nil {
		logger.Warn("Ingest: dropping bad payload",
			zap.String("topic", topic),
			zap.ByteString("payload", raw),
			zap.Error(err))
		return false
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.stopped {
		return false
	}

	select {
	case i.msgCh <- reading:
		return true
	default:
		logger.Warn("Ingest: queue full, dropping reading",
			zap.String("tank", tank.Name),
			zap.Int("queue_size", cap(i.msgCh)))
		return false
	}
}

// writer exits only when Stop closes the queue, so readings queued before
// shutdown are still stored after ctx is cancelled.
func (i *Ingestor) writer(ctx context.Context) {
	base := context.WithoutCancel(ctx)
	for r := range i.msgCh {
		i.write(base, r)
	}
	logger.Info("Ingest: writer drained")
}

func (i *Ingestor) write(ctx context.Context, r sensor.Reading) {
	ctx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	if err := i.store.Insert(ctx, r); err != nil {
		logger.Error("Ingest: insert failed", err,
			zap.String("tank", r.Tank.Name),
			zap.Time("timestamp", r.Timestamp))
		return
	}
	logger.Debug("Ingest: reading stored",
		zap.String("tank", r.Tank.Name),
		zap.Time("timestamp", r.Timestamp))
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wwtpDashboard/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix          = "wwtp:"
	defaultDialTimeout = 5 * time.Second
	defaultIOTimeout   = 3 * time.Second
)

// Cache stores serialized responses for a bounded time. A miss is
// reported as ok=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Close() error { return nil }

type Redis struct {
	client *redis.Client
}

// New returns a Redis cache when an address is configured and Nop otherwise.
func New(cfg config.CacheConfig) (Cache, error) {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return Nop{}, nil
	}
	return NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

// NewRedis connects and validates the connection with PING.
func NewRedis(addr, password string, db int) (*Redis, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis: addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultIOTimeout,
		WriteTimeout: defaultIOTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, keyPrefix+key, value, ttl).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Key joins request parts into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

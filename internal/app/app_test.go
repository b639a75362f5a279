package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wwtpDashboard/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Database = config.DatabaseConfig{Type: "sqlite", Path: ":memory:", MaxOpenConns: 1, Migrate: true}
	cfg.Cache = config.CacheConfig{}
	cfg.MQTT = config.MQTTConfig{}
	cfg.Logging.Level = "error"
	return cfg
}

func TestApp_InitServesRoutes(t *testing.T) {
	a := New(testConfig())
	require.NoError(t, a.Init(context.Background()))
	defer a.Close()

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = http.Post(srv.URL+"/tasks", "application/json", strings.NewReader(`{"title":"Clean filter"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestApp_InitFailsOnBadDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Type = "oracle"

	err := New(cfg).Init(context.Background())

	assert.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	a := New(testConfig())
	require.NoError(t, a.Init(context.Background()))
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_RunBeforeInit(t *testing.T) {
	assert.Error(t, New(testConfig()).Run(context.Background()))
}

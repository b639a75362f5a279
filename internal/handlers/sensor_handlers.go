package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"wwtpDashboard/internal/cache"
	"wwtpDashboard/internal/logger"

	"go.uber.org/zap"
)

type SensorHandler struct {
	SensorService SensorService
	cache         cache.Cache
	seriesTTL     time.Duration
	latestTTL     time.Duration
}

// NewSensorHandler serves sensor queries. A zero TTL disables caching for
// that endpoint.
func NewSensorHandler(sensorService SensorService, c cache.Cache, seriesTTL, latestTTL time.Duration) *SensorHandler {
	if c == nil {
		c = cache.Nop{}
	}
	return &SensorHandler{
		SensorService: sensorService,
		cache:         c,
		seriesTTL:     seriesTTL,
		latestTTL:     latestTTL,
	}
}

func (h *SensorHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	q := r.URL.Query()
	table := strings.ToLower(strings.TrimSpace(q.Get("table")))
	agoHours := strings.TrimSpace(q.Get("agoHours"))

	key := cache.Key("latest", table, agoHours)
	h.serveCached(w, r, key, h.latestTTL, "sensor_latest", func() (any, error) {
		return h.SensorService.Latest(r.Context(), table, agoHours)
	})

	logger.Info("HTTP_OUT: latest readings",
		zap.String("table", table),
		zap.Duration("ms", time.Since(start)))
}

func (h *SensorHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	q := r.URL.Query()
	table := strings.ToLower(strings.TrimSpace(q.Get("table")))
	from := strings.TrimSpace(q.Get("start"))
	to := strings.TrimSpace(q.Get("end"))

	key := cache.Key("series", table, from, to)
	h.serveCached(w, r, key, h.seriesTTL, "sensor_series", func() (any, error) {
		return h.SensorService.Series(r.Context(), table, from, to)
	})

	logger.Info("HTTP_OUT: series",
		zap.String("table", table),
		zap.Duration("ms", time.Since(start)))
}

func (h *SensorHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	q := r.URL.Query()
	readings, err := h.SensorService.Recent(r.Context(), q.Get("table"), q.Get("limit"))
	if err != nil {
		handleServiceError(w, r, err, "sensor_recent")
		return
	}

	logger.Info("HTTP_OUT: recent readings",
		zap.Int("count", len(readings)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, readings)
}

// serveCached answers from the cache when possible and stores fresh
// results. Cache failures are logged and never fail the request.
func (h *SensorHandler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, operation string, load func() (any, error)) {
	if ttl > 0 {
		body, ok, err := h.cache.Get(r.Context(), key)
		if err != nil {
			logger.Warn("HTTP: cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			w.Header().Set("X-Cache", "HIT")
			responseWithRaw(w, http.StatusOK, body)
			return
		}
	}

	result, err := load()
	if err != nil {
		handleServiceError(w, r, err, operation)
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		handleServiceError(w, r, err, operation)
		return
	}

	if ttl > 0 {
		if err := h.cache.Set(r.Context(), key, body, ttl); err != nil {
			logger.Warn("HTTP: cache write failed", zap.String("key", key), zap.Error(err))
		}
		w.Header().Set("X-Cache", "MISS")
	}
	responseWithRaw(w, http.StatusOK, append(body, '\n'))
}

package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// window is a fixed one-minute counter for one client.
type window struct {
	count   int
	resetAt time.Time
}

// limiter counts requests per client in fixed windows. Expired windows are
// swept at most once per window length.
type limiter struct {
	limit  int
	length time.Duration

	mu        sync.Mutex
	clients   map[string]*window
	nextSweep time.Time
}

type verdict struct {
	allowed   bool
	remaining int
	resetAt   time.Time
}

func newLimiter(limit int, length time.Duration) *limiter {
	return &limiter{limit: limit, length: length, clients: make(map[string]*window)}
}

func (l *limiter) take(client string, now time.Time) verdict {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextSweep) {
		for k, w := range l.clients {
			if now.After(w.resetAt) {
				delete(l.clients, k)
			}
		}
		l.nextSweep = now.Add(l.length)
	}

	w, ok := l.clients[client]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(l.length)}
		l.clients[client] = w
	}
	if w.count >= l.limit {
		return verdict{resetAt: w.resetAt}
	}
	w.count++
	return verdict{allowed: true, remaining: l.limit - w.count, resetAt: w.resetAt}
}

// RateLimit allows rpm requests per client IP in a fixed one-minute window.
// A non-positive rpm disables the limit.
func RateLimit(rpm int) func(http.Handler) http.Handler {
	if rpm <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(rpm, time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			v := l.take(clientIP(r), now)

			if !v.allowed {
				retryAfter := int(math.Ceil(v.resetAt.Sub(now).Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":       "rate_limit_exceeded",
					"message":     "Too many requests. Try again later.",
					"retry_after": retryAfter,
					"request_id":  GetRequestID(r.Context()),
				})
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rpm))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(v.resetAt.Unix(), 10))
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

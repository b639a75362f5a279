package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"wwtpDashboard/internal/logger"

	"go.uber.org/zap"
)

// Recoverer turns a handler panic into a bare 500. http.ErrAbortHandler is
// re-raised so the server can abort the connection.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			logger.Log(zap.ErrorLevel, "HTTP: panic recovered",
				zap.Any("panic", rec),
				zap.String("request_id", GetRequestID(r.Context())),
				zap.ByteString("stack", debug.Stack()))
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal Server Error"})
		}()

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

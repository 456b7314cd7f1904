// internal/middleware/logger.go
package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logger пишет одну запись slog на запрос; уровень зависит от статуса.
func Logger(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := newStatusRecorder(w)

			next.ServeHTTP(sr, r)

			status := sr.Status()
			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			} else if status >= 400 {
				level = slog.LevelWarn
			}

			l.LogAttrs(r.Context(), level, "http_request",
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("action", r.URL.Query().Get("action")),
				slog.Int("status", status),
				slog.Duration("latency", time.Since(start)),
				slog.Int("bytes", sr.bytes),
				slog.String("client_ip", ClientIP(r)),
				slog.String("user_agent", r.UserAgent()),
			)
		})
	}
}

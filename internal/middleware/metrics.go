// internal/middleware/metrics.go
package middleware

import (
	"net/http"
	"time"

	"storebot-admin/internal/metrics"
)

// Metrics считает запросы и их длительность. label превращает запрос в
// ограниченный набор значений метки action.
func Metrics(label func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := newStatusRecorder(w)
			next.ServeHTTP(sr, r)
			metrics.RecordRequest(r.Method, label(r), sr.Status(), time.Since(start))
		})
	}
}

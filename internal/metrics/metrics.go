// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry хранит коллекторы панели, без глобального DefaultRegisterer.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storebot_admin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of panel requests by resolved action.",
		},
		[]string{"method", "action", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storebot_admin",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of panel requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"action"},
	)

	upstreamCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storebot_admin",
			Subsystem: "backend",
			Name:      "calls_total",
			Help:      "Backend API calls by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storebot_admin",
			Subsystem: "backend",
			Name:      "call_duration_seconds",
			Help:      "Duration of backend API calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"endpoint"},
	)

	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storebot_admin",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		upstreamCalls,
		upstreamDuration,
		loginAttempts,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	// Серии входа видны в /metrics с нуля, до первой попытки.
	for _, result := range []string{"success", "failure", "throttled"} {
		loginAttempts.WithLabelValues(result)
	}
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordRequest(method, action string, status int, duration time.Duration) {
	if action == "" {
		action = "none"
	}
	httpRequests.WithLabelValues(method, action, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordUpstreamCall учитывает вызов backend API; outcome равен "ok" или виду ошибки.
func RecordUpstreamCall(endpoint, outcome string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	upstreamCalls.WithLabelValues(endpoint, outcome).Inc()
	upstreamDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func RecordLoginAttempt(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

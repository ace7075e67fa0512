package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	toolInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "secmcp",
			Subsystem: "tool",
			Name:      "invocations_total",
			Help:      "Tool invocations by outcome.",
		},
		[]string{"tool", "outcome"},
	)
	toolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "secmcp",
			Subsystem: "tool",
			Name:      "duration_seconds",
			Help:      "Tool invocation duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"tool", "outcome"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "secmcp",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "secmcp",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RegisterMetrics registers the collectors with the default registry.
// It is safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(toolInvocations, toolDuration, httpRequests, httpDuration)
	})
}

// RecordInvocation counts one tool call.
func RecordInvocation(tool, outcome string, duration time.Duration) {
	RegisterMetrics()
	toolInvocations.WithLabelValues(tool, outcome).Inc()
	toolDuration.WithLabelValues(tool, outcome).Observe(duration.Seconds())
}

// RecordHTTPRequest counts one request served by the HTTP transport.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

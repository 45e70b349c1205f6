package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "callcore",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "callcore",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	negotiations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "callcore",
			Subsystem: "negotiate",
			Name:      "attempts_total",
			Help:      "Negotiation attempts by outcome and engine version.",
		},
		[]string{"outcome", "version"},
	)
	constructFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "callcore",
			Subsystem: "negotiate",
			Name:      "construct_failures_total",
			Help:      "Engine construction failures during the version scan.",
		},
		[]string{"version"},
	)
	serverDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "callcore",
			Subsystem: "relay",
			Name:      "servers_dropped_total",
			Help:      "Call servers removed by debug filtering.",
		},
		[]string{"reason"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, negotiations, constructFailures, serverDrops)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordNegotiation(outcome, version string) {
	RegisterMetrics()
	negotiations.WithLabelValues(outcome, version).Inc()
}

func RecordConstructFailure(version string) {
	RegisterMetrics()
	constructFailures.WithLabelValues(version).Inc()
}

func RecordServerDrop(reason string) {
	RegisterMetrics()
	serverDrops.WithLabelValues(reason).Inc()
}

package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	ticksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plumesim",
			Subsystem: "publisher",
			Name:      "ticks_total",
			Help:      "Snapshot task ticks, by outcome.",
		},
		[]string{"success"},
	)
	particleCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "plumesim",
			Subsystem: "model",
			Name:      "particle_count",
			Help:      "Configured particle budget of the current model (0 when absent).",
		},
	)
	observerClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "plumesim",
			Subsystem: "ws",
			Name:      "observer_clients",
			Help:      "Connected snapshot observers.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plumesim",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Model operation requests, by operation and status.",
		},
		[]string{"op", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "plumesim",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Model operation request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ticksTotal, particleCount, observerClients, httpRequests, httpDuration)
	})
}

func RecordTick(success bool) {
	RegisterMetrics()
	ticksTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func SetParticleCount(n int) {
	RegisterMetrics()
	particleCount.Set(float64(n))
}

func SetObserverClients(n int) {
	RegisterMetrics()
	observerClients.Set(float64(n))
}

func RecordRequest(op string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(op, statusLabel).Inc()
	httpDuration.WithLabelValues(op, statusLabel).Observe(duration.Seconds())
}

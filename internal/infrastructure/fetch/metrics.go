package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the scheduler's Prometheus collectors.
type Metrics struct {
	requests    *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	duration    prometheus.Histogram
	inFlight    prometheus.Gauge
}

// NewMetrics registers the collectors on reg. A nil reg yields working but
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "site_inspector",
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Network requests issued, by low-level return code.",
		}, []string{"return_code"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "site_inspector",
			Subsystem: "fetch",
			Name:      "cache_hits_total",
			Help:      "Requests answered from the response cache.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "site_inspector",
			Subsystem: "fetch",
			Name:      "cache_misses_total",
			Help:      "Requests not found in the response cache.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "site_inspector",
			Subsystem: "fetch",
			Name:      "request_duration_seconds",
			Help:      "Latency of network requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "site_inspector",
			Subsystem: "fetch",
			Name:      "in_flight_requests",
			Help:      "Requests currently holding a worker slot.",
		}),
	}
}

// Requests is the per return code request counter.
func (m *Metrics) Requests() *prometheus.CounterVec { return m.requests }

// CacheHits counts requests answered from the cache.
func (m *Metrics) CacheHits() prometheus.Counter { return m.cacheHits }

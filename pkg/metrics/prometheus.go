package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	resolutions    *prometheus.CounterVec
	upstreamErrors *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	sweeps         prometheus.Counter
	swept          prometheus.Counter
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		resolutions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_resolutions_total",
				Help: "Resolved operations by provenance (cached, live, stale, mock)",
			},
			[]string{"operation", "provenance"},
		),
		upstreamErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_upstream_errors_total",
				Help: "Live fetches that failed after retries, by error kind",
			},
			[]string{"kind"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpulse_operation_duration_seconds",
				Help:    "Duration of resolved operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		sweeps: f.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_cache_sweeps_total",
			Help: "Completed cache sweeps",
		}),
		swept: f.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_cache_evictions_total",
			Help: "Entries removed by cache sweeps",
		}),
	}
}

// RecordResolution counts one resolved operation.
func (r *Recorder) RecordResolution(op, provenance string) {
	r.resolutions.WithLabelValues(op, provenance).Inc()
}

// RecordUpstreamError records a failed live fetch.
func (r *Recorder) RecordUpstreamError(kind string) {
	r.upstreamErrors.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordCacheSweep records one sweep and the number of entries it evicted.
func (r *Recorder) RecordCacheSweep(removed int) {
	r.sweeps.Inc()
	r.swept.Add(float64(removed))
}

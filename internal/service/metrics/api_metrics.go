package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API holds per-endpoint handler metrics.
type API struct {
	Latency   *prometheus.HistogramVec
	Throttled *prometheus.CounterVec
	Errors    *prometheus.CounterVec
}

func NewAPI(reg prometheus.Registerer) *API {
	f := promauto.With(reg)
	return &API{
		Latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stockpulse",
				Subsystem: "api",
				Name:      "latency_seconds",
				Help:      "Latency of market endpoints",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		Throttled: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockpulse",
				Subsystem: "api",
				Name:      "throttled_total",
				Help:      "Requests rejected by the per-client rate limiter",
			},
			[]string{"endpoint"},
		),
		Errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockpulse",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Rejected requests by endpoint",
			},
			[]string{"endpoint"},
		),
	}
}

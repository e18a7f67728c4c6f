package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for NavigationsTotal.
const (
	OutcomeSwapped        = "swapped"
	OutcomeAnchor         = "anchor"
	OutcomeSuperseded     = "superseded"
	OutcomeFetchError     = "fetch_error"
	OutcomeContentMissing = "content_missing"
	OutcomeFallback       = "fallback"
)

type Metrics struct {
	NavigationsTotal    *prometheus.CounterVec
	NavigationDuration  prometheus.Histogram
	NavigationsInFlight prometheus.Gauge
	HookRunsTotal       prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SessionsActive      prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer
// for the process-wide registry, or a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		NavigationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitenav_navigations_total",
				Help: "Partial navigations by outcome.",
			},
			[]string{"outcome"},
		),
		NavigationDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sitenav_navigation_duration_seconds",
				Help:    "Duration of LoadPage from fade start to swap completion.",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		NavigationsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "sitenav_navigations_in_flight",
				Help: "Partial navigations between fetch start and swap completion.",
			},
		),
		HookRunsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "sitenav_lifecycle_hook_runs_total",
				Help: "Complete lifecycle hook invocations.",
			},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		SessionsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "sitenav_sessions_active",
				Help: "Open page sessions held by the API server.",
			},
		),
	}
}

// Package metrics provides Prometheus metrics collection for the MedSafe API.
// It exports HTTP server metrics plus domain metrics for analyses, external
// collaborator calls, circuit breaker state and the interaction index.
//
// All metrics are automatically registered with the Prometheus default registry
// during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medsafe_analyses_total",
			Help: "Completed analyses by resulting risk level",
		},
		[]string{"risk_level"},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "medsafe_analysis_duration_seconds",
			Help:    "End-to-end analysis pipeline latency",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10, 15},
		},
	)

	ExternalCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medsafe_external_calls_total",
			Help: "Calls to external collaborators by outcome",
		},
		[]string{"collaborator", "outcome"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "medsafe_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	InteractionIndexRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "medsafe_interaction_index_records",
			Help: "Interaction records loaded into the in-memory index",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(AnalysesTotal)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(ExternalCallsTotal)
	prometheus.MustRegister(BreakerState)
	prometheus.MustRegister(InteractionIndexRecords)
}

// SetBreakerState translates a breaker state name into the gauge encoding.
func SetBreakerState(name, state string) {
	var v float64
	switch state {
	case "half_open":
		v = 1
	case "open":
		v = 2
	}
	BreakerState.WithLabelValues(name).Set(v)
}

package provider

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ServiceRequestSeconds observes algorithm service calls, retries included.
	ServiceRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fxgraph_algorithm_service_request_seconds",
			Help:    "Latency of algorithm service calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "outcome"},
	)

	ServiceRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxgraph_algorithm_service_retries_total",
			Help: "Retried algorithm service attempts.",
		},
		[]string{"endpoint"},
	)

	ServiceBreakerOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fxgraph_algorithm_service_breaker_open",
			Help: "1 while the algorithm service circuit breaker is open.",
		},
	)
)

func init() {
	prometheus.MustRegister(ServiceRequestSeconds)
	prometheus.MustRegister(ServiceRetriesTotal)
	prometheus.MustRegister(ServiceBreakerOpen)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsUnavailable(err):
		return "unavailable"
	default:
		return "error"
	}
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search transport Prometheus metrics.
var (
	TransportRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docquery",
			Name:      "transport_requests_total",
			Help:      "Total number of search transport requests",
		},
		[]string{"endpoint", "status"},
	)

	TransportRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docquery",
			Name:      "transport_request_duration_seconds",
			Help:      "Search transport request duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	TransportErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docquery",
			Name:      "transport_errors_total",
			Help:      "Total search transport errors",
		},
		[]string{"endpoint", "error_type"}, // "network" / "status" / "decode"
	)

	TransportRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docquery",
			Name:      "transport_records_total",
			Help:      "Raw records received from the search server",
		},
		[]string{"endpoint"},
	)
)

var registerOnce sync.Once

// RegisterTransportMetrics registers transport metrics on the default
// registerer. Safe to call more than once.
func RegisterTransportMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(TransportRequestsTotal)
		prometheus.MustRegister(TransportRequestDuration)
		prometheus.MustRegister(TransportErrorsTotal)
		prometheus.MustRegister(TransportRecordsTotal)
	})
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amlcase_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amlcase_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	CaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amlcase_case_operations_total",
			Help: "Total number of case operations by result",
		},
		[]string{"operation", "result"},
	)

	AlertsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amlcase_alerts_imported_total",
			Help: "Total number of alert rows processed by import, by outcome",
		},
		[]string{"outcome"},
	)

	PublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amlcase_publish_failures_total",
			Help: "Total number of post-commit publisher failures",
		},
		[]string{"publisher"},
	)
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// ObserveOperation counts one case operation outcome.
func ObserveOperation(operation string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	CaseOperations.WithLabelValues(operation, result).Inc()
}

// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RiskDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_decisions_total",
			Help: "Risk assessment outcomes by decision and rejection reason",
		},
		[]string{"decision", "reason"},
	)

	FraudAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_api_requests_total",
			Help: "Calls to the external fraud scoring service by result",
		},
		[]string{"result"},
	)

	FraudAPIDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fraud_api_request_duration_seconds",
			Help:    "Latency of the external fraud scoring call",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	OnboardingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customer_onboarding_total",
			Help: "Customer onboarding attempts by result",
		},
		[]string{"result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request latency by route and status",
		},
		[]string{"method", "route", "status"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)

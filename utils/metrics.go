package utils

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SubmissionsTotal counts attendance submissions by action and outcome.
	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "submissions_total",
		Help:      "Attendance submissions by action and outcome.",
	}, []string{"action", "outcome"})

	// AdminOperationsTotal counts admin record operations by operation and result.
	AdminOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "admin_operations_total",
		Help:      "Admin record operations by operation and result.",
	}, []string{"op", "result"})

	// HTTPRequestDuration observes handler latency per route.
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "attendance",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route, method and status class.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

func init() {
	prometheus.MustRegister(SubmissionsTotal, AdminOperationsTotal, HTTPRequestDuration)
}

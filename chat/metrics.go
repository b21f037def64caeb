package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "querydesk"

const (
	outcomeSuccess    = "success"
	outcomeValidation = "validation_error"
	outcomeService    = "service_error"
	outcomeBusy       = "busy"
)

var (
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "active_sessions",
			Help:      "Number of chat sessions held in memory",
		},
	)

	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "submissions_total",
			Help:      "Query submissions by outcome",
		},
		[]string{"outcome"},
	)

	// Only submissions that reached the query service are observed.
	submissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "submission_duration_seconds",
			Help:      "Duration of query service calls made by submissions",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	entriesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "entries_appended_total",
			Help:      "Chat entries appended to histories",
		},
	)
)

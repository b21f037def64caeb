package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// queriesTotal counts processed queries.
	// Labels:
	//   - route: records or chat
	//   - status: success or error
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "querydesk",
			Subsystem: "processor",
			Name:      "queries_total",
			Help:      "Queries processed by route and status",
		},
		[]string{"route", "status"},
	)

	recordsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "querydesk",
			Subsystem: "processor",
			Name:      "records_returned",
			Help:      "Number of records returned per record query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts submitted bridge transactions by type and outcome
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_submissions_total",
			Help: "Total number of submitted bridge transactions",
		},
		[]string{"type", "outcome"},
	)

	// PollPassesTotal counts poll passes by type and resulting status
	PollPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_poll_passes_total",
			Help: "Total number of lifecycle poll passes",
		},
		[]string{"type", "status"},
	)

	// PollDuration tracks the duration of a full poll series
	PollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracker_poll_duration_seconds",
			Help:    "Duration of a poll series in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	// StatusTransitions counts lifecycle status transitions
	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_status_transitions_total",
			Help: "Total number of transaction status transitions written",
		},
		[]string{"type", "to_status"},
	)

	// LedgerWriteFailures counts swallowed ledger persistence failures
	LedgerWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_ledger_write_failures_total",
			Help: "Total number of ledger writes that failed and were degraded",
		},
	)

	// ParameterFetches counts bridge parameter snapshot fetches by outcome
	ParameterFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_parameter_fetches_total",
			Help: "Total number of bridge parameter snapshot fetches",
		},
		[]string{"outcome"},
	)

	// ErrorsTotal counts errors by component and category
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "category"},
	)
)

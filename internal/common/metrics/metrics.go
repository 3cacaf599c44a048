// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActionsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_actions_applied_total",
			Help: "Total number of successful transitions by entity type and action",
		},
		[]string{"entity_type", "action"},
	)

	ActionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_actions_rejected_total",
			Help: "Total number of rejected actions by entity type and error code",
		},
		[]string{"entity_type", "error_code"},
	)

	ActionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "engine_action_duration_seconds",
			Help: "Duration of ApplyAction calls in seconds",
		},
		[]string{"entity_type", "action"},
	)

	CascadeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_cascade_failures_total",
			Help: "Secondary cascade writes that did not apply",
		},
		[]string{"entity_type", "action"},
	)

	ConflictRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_conflict_retries_total",
			Help: "Automatic retries after optimistic-concurrency conflicts",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_sent_total",
			Help: "Notification requests delivered, by kind",
		},
		[]string{"kind"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_failed_total",
			Help: "Notification requests that exhausted their retries, by kind",
		},
		[]string{"kind"},
	)

	SweepRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweeper_runs_total",
			Help: "Expiry sweep executions",
		},
	)

	SweepExpirations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweeper_expired_total",
			Help: "AOs expired by the sweep",
		},
	)

	PropagatorDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propagator_dropped_total",
			Help: "Events dropped for slow or out-of-order subscribers",
		},
		[]string{"reason"},
	)
)

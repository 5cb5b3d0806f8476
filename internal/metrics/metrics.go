package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "snakebot"

// Store Metrics
var (
	// StoreOpsTotal tracks KV operations by backend, operation and status
	StoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total KV store operations by backend, operation and status",
		},
		[]string{"backend", "operation", "status"},
	)

	// StoreOpDuration tracks KV operation latency in seconds
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "KV store operation duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"backend", "operation"},
	)

	// RedisOpsTotal tracks raw Redis commands by command name and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_operations_total",
			Help:      "Total Redis commands by command and status",
		},
		[]string{"operation", "status"},
	)

	// RedisConnectionErrors tracks Redis dial failures
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_connection_errors_total",
			Help:      "Total Redis connection errors",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state_changes_total",
			Help:      "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Record Metrics
var (
	// MutationsTotal tracks read-modify-write cycles by namespace and outcome
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_mutations_total",
			Help:      "Read-modify-write cycles by namespace and outcome (put, delete, keep, error)",
		},
		[]string{"namespace", "outcome"},
	)

	// MutatorQueueDepth tracks pending cycles across all mutator shards
	MutatorQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mutator_queue_depth",
			Help:      "Pending read-modify-write cycles across mutator shards",
		},
	)

	// MalformedRecordsTotal tracks stored values that failed to decode
	MalformedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_records_total",
			Help:      "Stored values that failed to decode, by namespace",
		},
		[]string{"namespace"},
	)
)

// Event Metrics
var (
	// EventsTotal tracks inbound platform events by type and result
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound platform events by type and result",
		},
		[]string{"event", "result"},
	)

	// EventDuration tracks handler latency per event type
	EventDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Time spent handling an inbound event",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"event"},
	)

	// SideEffectsTotal tracks outbound platform commands by kind and result
	SideEffectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effects_total",
			Help:      "Outbound platform commands by kind and result",
		},
		[]string{"kind", "result"},
	)

	// KarmaAdjustmentsTotal tracks karma changes by direction
	KarmaAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "karma_adjustments_total",
			Help:      "Karma adjustments by direction",
		},
		[]string{"direction"},
	)

	// CommandGateDecisionsTotal tracks gate results by reason
	CommandGateDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_gate_decisions_total",
			Help:      "Command gate decisions by reason",
		},
		[]string{"reason"},
	)

	// LogAnnouncementsDropped tracks logs-channel posts dropped by the rate limiter
	LogAnnouncementsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_announcements_dropped_total",
			Help:      "Logs channel announcements dropped by the per-guild rate limiter",
		},
	)
)

// SideEffect records the outcome of one outbound command.
func SideEffect(kind string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SideEffectsTotal.WithLabelValues(kind, result).Inc()
}

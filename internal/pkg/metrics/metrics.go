package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DeliveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_delivery_attempts_total",
			Help: "Delivery gateway calls by message type and outcome (ok/failed)",
		},
		[]string{"message_type", "outcome"},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notify_dispatch_duration_seconds",
			Help:    "Duration of one dispatch over all recipients",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"entity_type"},
	)

	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_lifecycle_transitions_total",
			Help: "Status transitions by entity type and resulting status",
		},
		[]string{"entity_type", "status"},
	)

	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_sweep_runs_total",
			Help: "Due-sweep runs by result (success/failure/skipped)",
		},
		[]string{"result"},
	)

	SweepItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_sweep_items_total",
			Help: "Scheduled notifications seen by the sweep, by outcome",
		},
		[]string{"outcome"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notify_sweep_duration_seconds",
			Help:    "Duration of one due-sweep run",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 60, 300},
		},
	)

	SweepLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notify_sweep_last_success_timestamp",
			Help: "Unix timestamp of the last successful due-sweep run",
		},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "notify_gateway_breaker_state",
			Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)
)

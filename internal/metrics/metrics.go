// Package metrics exposes the coordination core's timing and volume
// counters as Prometheus collectors, in the same promauto-registered
// package-var style used across the rest of the pack's services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// tickDuration measures wall-clock time spent in one coordinator
	// tick, from mark-stale through assignment application.
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "swarmcore",
		Subsystem: "coordinator",
		Name:      "tick_duration_seconds",
		Help:      "Coordinator tick latency in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	// constraintSolveDuration measures time spent in the constraint
	// engine per invocation (one call may cover many drones).
	constraintSolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "swarmcore",
		Subsystem: "constraint",
		Name:      "solve_duration_seconds",
		Help:      "Constraint engine solve latency in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	// affectedSetSize tracks how many drones a single blast-radius
	// cascade touched.
	affectedSetSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "swarmcore",
		Subsystem: "blast",
		Name:      "affected_set_size",
		Help:      "Number of drones in a computed blast radius",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
	})

	// roleChanges counts drones whose formation role actually changed in
	// a role-assignment cycle, labeled by the new role.
	roleChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swarmcore",
		Subsystem: "roles",
		Name:      "changes_total",
		Help:      "Total role changes applied, by new role",
	}, []string{"role"})

	// forcedExits counts assignments made in a tick's forced-exit pass
	// whose target pattern has emergency κ; a forced exit to a
	// non-emergency pattern is not counted.
	forcedExits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swarmcore",
		Subsystem: "constraint",
		Name:      "forced_exits_total",
		Help:      "Total emergency-autonomy assignments made in the forced-exit pass, by target pattern",
	}, []string{"target_pattern"})

	// commandSendFailures counts non-fatal delivery failures on the
	// outbound comms interface.
	commandSendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "swarmcore",
		Subsystem: "comms",
		Name:      "command_send_failures_total",
		Help:      "Total non-fatal command delivery failures",
	})
)

// ObserveTickDuration records the wall-clock duration of one coordinator
// tick, in seconds.
func ObserveTickDuration(seconds float64) {
	tickDuration.Observe(seconds)
}

// ObserveConstraintSolveDuration records the duration of one constraint
// engine invocation, in seconds.
func ObserveConstraintSolveDuration(seconds float64) {
	constraintSolveDuration.Observe(seconds)
}

// ObserveAffectedSetSize records the size of a computed blast radius.
func ObserveAffectedSetSize(n int) {
	affectedSetSize.Observe(float64(n))
}

// RecordRoleChange records one drone's role change.
func RecordRoleChange(newRole string) {
	roleChanges.WithLabelValues(newRole).Inc()
}

// RecordForcedExit records one forced-exit transition.
func RecordForcedExit(targetPattern string) {
	forcedExits.WithLabelValues(targetPattern).Inc()
}

// RecordCommandSendFailure records one non-fatal delivery failure.
func RecordCommandSendFailure() {
	commandSendFailures.Inc()
}

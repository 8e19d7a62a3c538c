// Package metrics registers the Prometheus collectors the simulation
// core reports through, exposed at /metrics by internal/http.Server.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dannycoates/elevatorsim/internal/constants"
)

var (
	tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: constants.MetricsNamespace,
		Name:      "tick_duration_seconds",
		Help:      "Duration of one backend.Tick substep.",
		Buckets:   prometheus.DefBuckets,
	})

	passengersSpawned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: constants.MetricsNamespace,
		Name:      "passengers_spawned_total",
		Help:      "Passengers spawned since the current challenge started.",
	})

	passengersTransported = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: constants.MetricsNamespace,
		Name:      "passengers_transported_total",
		Help:      "Passengers that completed a trip (exited at their destination).",
	})

	elevatorPosition = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: constants.MetricsNamespace,
		Name:      "elevator_position_floors",
		Help:      "Current continuous position of an elevator, in floors.",
	}, []string{"elevator"})

	elevatorVelocity = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: constants.MetricsNamespace,
		Name:      "elevator_velocity_floors_per_sec",
		Help:      "Current signed velocity of an elevator, in floors/sec.",
	}, []string{"elevator"})

	challengeOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: constants.MetricsNamespace,
		Name:      "challenge_outcomes_total",
		Help:      "Terminal challenge outcomes, labeled succeeded or failed.",
	}, []string{"outcome"})

	statsEmissionsThrottled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: constants.MetricsNamespace,
		Name:      "stats_emissions_throttled_total",
		Help:      "stats_changed ticks suppressed by the minimum-interval emission gate.",
	})
)

func init() {
	prometheus.MustRegister(
		tickDuration,
		passengersSpawned,
		passengersTransported,
		elevatorPosition,
		elevatorVelocity,
		challengeOutcomes,
		statsEmissionsThrottled,
	)
}

// ObserveTickDuration records how long one backend.Tick call took.
func ObserveTickDuration(seconds float64) {
	tickDuration.Observe(seconds)
}

// IncPassengersSpawned records one passenger_spawned event.
func IncPassengersSpawned() {
	passengersSpawned.Inc()
}

// IncPassengersTransported records one passengers_exited completion.
func IncPassengersTransported(n int) {
	passengersTransported.Add(float64(n))
}

// SetElevatorKinematics publishes one elevator's position and velocity.
func SetElevatorKinematics(elevatorIndex int, position, velocity float64) {
	label := prometheus.Labels{"elevator": elevatorLabel(elevatorIndex)}
	elevatorPosition.With(label).Set(position)
	elevatorVelocity.With(label).Set(velocity)
}

// RecordChallengeOutcome records a challenge_ended event's outcome.
func RecordChallengeOutcome(succeeded bool) {
	outcome := "failed"
	if succeeded {
		outcome = "succeeded"
	}
	challengeOutcomes.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// IncStatsEmissionThrottled records one stats_changed tick suppressed by
// the throttle gate in internal/backend.
func IncStatsEmissionThrottled() {
	statsEmissionsThrottled.Inc()
}

func elevatorLabel(index int) string {
	return fmt.Sprintf("elevator-%d", index)
}

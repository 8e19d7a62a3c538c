package eventbus

import (
	"github.com/dannycoates/elevatorsim/internal/domain"
	"github.com/dannycoates/elevatorsim/internal/elevator"
)

// StateChangedPayload is the full world snapshot emitted once per tick.
type StateChangedPayload struct {
	Floors           []domain.FloorSnapshot      `json:"floors"`
	Elevators        []elevator.ElevatorSnapshot `json:"elevators"`
	Passengers       []domain.PassengerSnapshot  `json:"passengers"`
	Stats            domain.Stats                `json:"stats"`
	IsChallengeEnded bool                        `json:"isChallengeEnded"`
	Dt               float64                     `json:"dt"`
}

// StatsChangedPayload carries a throttled statistics snapshot.
type StatsChangedPayload struct {
	Stats domain.Stats `json:"stats"`
}

// PassengerSpawnedPayload announces one newly spawned passenger.
type PassengerSpawnedPayload struct {
	Passenger domain.PassengerSnapshot `json:"passenger"`
}

// PassengersBoardedPayload carries the passengers that boarded during
// one arrival settlement.
type PassengersBoardedPayload struct {
	ElevatorIndex int                        `json:"elevatorIndex"`
	Floor         int                        `json:"floor"`
	Passengers    []domain.PassengerSnapshot `json:"passengers"`
}

// PassengersExitedPayload carries the passengers that exited during one
// arrival settlement.
type PassengersExitedPayload struct {
	ElevatorIndex int                        `json:"elevatorIndex"`
	Floor         int                        `json:"floor"`
	Passengers    []domain.PassengerSnapshot `json:"passengers"`
}

// ChallengeEndedPayload announces the terminal outcome.
type ChallengeEndedPayload struct {
	Succeeded bool `json:"succeeded"`
}

// ChallengeInitializedPayload announces a fresh challenge run.
type ChallengeInitializedPayload struct{}

// SimulationStartedPayload announces the frame loop has begun ticking.
type SimulationStartedPayload struct{}

// TimescaleChangedPayload carries the newly applied time scale.
type TimescaleChangedPayload struct {
	TimeScale float64 `json:"timeScale"`
}

// CleanupPayload announces teardown; subscribers should drop any
// retained state.
type CleanupPayload struct{}

// UsercodeErrorPayload carries a controller failure.
type UsercodeErrorPayload struct {
	Err error `json:"-"`
}

package controller

import (
	"math"

	"github.com/dannycoates/elevatorsim/internal/domain"
	"github.com/dannycoates/elevatorsim/internal/elevator"
)

// ElevatorView is the read-mostly object the controller sees each tick.
// Its only mutating operation is GoToFloor; every other field is a
// snapshot valid only for the duration of the call that receives it.
type ElevatorView struct {
	Index        int
	CurrentFloor int

	// DestinationFloor is only meaningful while HasDestination is true;
	// an elevator that has never been sent anywhere reports none.
	DestinationFloor int
	HasDestination   bool

	PressedFloorButtons []int
	PercentFull         float64
	GoingUpIndicator    bool
	GoingDownIndicator  bool

	elevator *elevator.Elevator
}

// NewElevatorView builds a read-mostly view over a live elevator. It is
// exported so bundled reference controllers (and tests) in other
// packages can construct views the same way the bridge does.
func NewElevatorView(e *elevator.Elevator) *ElevatorView {
	pressed := make([]int, 0, len(e.Buttons))
	for floor, on := range e.Buttons {
		if on {
			pressed = append(pressed, floor)
		}
	}
	return &ElevatorView{
		Index:               e.Index,
		CurrentFloor:        e.CurrentFloor(),
		DestinationFloor:    e.Destination,
		HasDestination:      e.HasDestination,
		PressedFloorButtons: pressed,
		PercentFull:         e.PercentFull(),
		GoingUpIndicator:    e.GoingUpIndicator,
		GoingDownIndicator:  e.GoingDownIndicator,
		elevator:            e,
	}
}

// GoToFloor is the sole mutating action available to a controller. The
// argument is coerced to an integer (rounded) and clamped to the valid
// floor range by the underlying elevator; out-of-range or fractional
// input is never an error.
func (v *ElevatorView) GoToFloor(n float64) {
	v.elevator.GoToFloor(int(math.Round(n)))
}

// FloorView is the read-only object the controller sees for each floor.
type FloorView struct {
	Level int
	Up    bool
	Down  bool
}

// NewFloorView builds a read-only view over a live floor.
func NewFloorView(f *domain.Floor) *FloorView {
	return &FloorView{Level: f.Level, Up: f.Up, Down: f.Down}
}

// Package scan is a bundled reference Controller: a SCAN/LOOK elevator
// dispatcher that keeps sweeping in one direction until it runs out of
// requests that way, then reverses, adapted from a production
// dispatch loop's look-ahead and boundary-reversal scenarios onto the
// read-mostly ElevatorView/FloorView the core hands every controller.
package scan

import (
	"github.com/dannycoates/elevatorsim/internal/controller"
	"github.com/dannycoates/elevatorsim/internal/domain"
)

// Controller is a stateful SCAN dispatcher: one current sweep direction
// per elevator index, persisted across ticks since the views it
// receives each tick are otherwise stateless snapshots.
type Controller struct {
	direction map[int]domain.Direction
}

// New creates a SCAN controller with no elevators yet assigned a
// direction; the first tick picks one per elevator based on demand.
func New() *Controller {
	return &Controller{direction: make(map[int]domain.Direction)}
}

// Tick assigns each elevator without a pending stop its next
// destination: continue sweeping the current direction while requests
// remain that way (SCENARIO: moving up/down with matching requests),
// reverse at a boundary or when the sweep runs dry but requests remain
// the other way (SCENARIO: direction change), otherwise stay put.
func (c *Controller) Tick(elevators []*controller.ElevatorView, floors []*controller.FloorView, dt float64) error {
	requestsAbove := func(e *controller.ElevatorView, floor int) bool {
		return hasRequestInRange(e, floors, floor+1, len(floors)-1)
	}
	requestsBelow := func(e *controller.ElevatorView, floor int) bool {
		return hasRequestInRange(e, floors, 0, floor-1)
	}

	for _, e := range elevators {
		if e.HasDestination && e.DestinationFloor != e.CurrentFloor {
			// Already mid-sweep toward a committed stop; let it arrive.
			continue
		}

		dir := c.direction[e.Index]
		if dir == domain.DirectionIdle {
			dir = pickInitialDirection(e, floors)
		}

		switch dir {
		case domain.DirectionUp:
			if target, ok := nearestRequest(e, floors, e.CurrentFloor, len(floors)-1, true); ok {
				e.GoToFloor(float64(target))
				c.direction[e.Index] = domain.DirectionUp
				continue
			}
			if requestsBelow(e, e.CurrentFloor) {
				dir = domain.DirectionDown
			} else {
				c.direction[e.Index] = domain.DirectionIdle
				continue
			}

		case domain.DirectionDown:
			if target, ok := nearestRequest(e, floors, 0, e.CurrentFloor, false); ok {
				e.GoToFloor(float64(target))
				c.direction[e.Index] = domain.DirectionDown
				continue
			}
			if requestsAbove(e, e.CurrentFloor) {
				dir = domain.DirectionUp
			} else {
				c.direction[e.Index] = domain.DirectionIdle
				continue
			}
		}

		// Direction just flipped above; retry the chosen direction once
		// before giving up for this tick.
		if dir == domain.DirectionUp {
			if target, ok := nearestRequest(e, floors, e.CurrentFloor, len(floors)-1, true); ok {
				e.GoToFloor(float64(target))
			}
		} else if dir == domain.DirectionDown {
			if target, ok := nearestRequest(e, floors, 0, e.CurrentFloor, false); ok {
				e.GoToFloor(float64(target))
			}
		}
		c.direction[e.Index] = dir
	}
	return nil
}

func pickInitialDirection(e *controller.ElevatorView, floors []*controller.FloorView) domain.Direction {
	if hasRequestInRange(e, floors, e.CurrentFloor, len(floors)-1) {
		return domain.DirectionUp
	}
	if hasRequestInRange(e, floors, 0, e.CurrentFloor) {
		return domain.DirectionDown
	}
	return domain.DirectionIdle
}

func hasRequestInRange(e *controller.ElevatorView, floors []*controller.FloorView, lo, hi int) bool {
	_, ok := nearestRequest(e, floors, lo, hi, true)
	if ok {
		return true
	}
	_, ok = nearestRequest(e, floors, lo, hi, false)
	return ok
}

// nearestRequest scans [lo, hi] for the closest floor (in the direction
// given by ascending) that has either a pressed car button or an active
// hall call, excluding the elevator's own current floor.
func nearestRequest(e *controller.ElevatorView, floors []*controller.FloorView, lo, hi int, ascending bool) (int, bool) {
	if lo > hi {
		return 0, false
	}
	pressed := make(map[int]bool, len(e.PressedFloorButtons))
	for _, f := range e.PressedFloorButtons {
		pressed[f] = true
	}

	step := 1
	start, end := lo, hi
	if !ascending {
		step = -1
		start, end = hi, lo
	}

	for floor := start; (ascending && floor <= end) || (!ascending && floor >= end); floor += step {
		if floor == e.CurrentFloor {
			continue
		}
		if pressed[floor] {
			return floor, true
		}
		if floor >= 0 && floor < len(floors) && (floors[floor].Up || floors[floor].Down) {
			return floor, true
		}
	}
	return 0, false
}

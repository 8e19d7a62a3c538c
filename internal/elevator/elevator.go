// Package elevator implements the elevator entity: kinematics, button
// panel, passenger slots and door-pause timer.
package elevator

import (
	"math"
	"math/rand"

	"github.com/dannycoates/elevatorsim/internal/domain"
)

// Kinematic constants, in floors and seconds. Values are tuned so the
// motion feels like a real elevator at floorHeight=1; they are not
// physical constants and must not be treated as such.
const (
	Acceleration           = 1.1  // floors/s^2
	Deceleration           = 1.6  // floors/s^2
	DoorPause              = 1.2  // s
	ArrivalThreshold       = 0.01 // floors
	StoppingDistanceMargin = 1.05
	DecelerationCorrection = 1.1
	AccelDistanceFactor    = 5.0
)

// Elevator is owned exclusively by the backend. All mutation happens
// through goToFloor, addPassenger, removePassenger, setIndicators and
// tick; there is no internal locking because the core runs single
// threaded and the controller only ever reaches it through the bridge's
// goToFloor proxy.
type Elevator struct {
	Index    int
	Capacity int
	MaxSpeed float64

	Position float64
	Velocity float64

	// Destination is only meaningful while HasDestination is true; a
	// fresh elevator has no destination until the first GoToFloor.
	Destination    int
	HasDestination bool

	Buttons []bool // one per floor
	Slots   []*domain.Passenger

	GoingUpIndicator   bool
	GoingDownIndicator bool

	Pause float64
	Moves int

	floorCount int
	rng        *rand.Rand
}

// New creates an elevator at floor 0 with capacity slots and the given
// top speed, serving floorCount floors. rng drives the randomized free
// slot choice in addPassenger; pass a seeded source for deterministic
// tests.
func New(index, capacity, floorCount int, maxSpeed float64, rng *rand.Rand) *Elevator {
	return &Elevator{
		Index:              index,
		Capacity:           capacity,
		MaxSpeed:           maxSpeed,
		Buttons:            make([]bool, floorCount),
		Slots:              make([]*domain.Passenger, capacity),
		GoingUpIndicator:   true,
		GoingDownIndicator: true,
		floorCount:         floorCount,
		rng:                rng,
	}
}

// CurrentFloor is floor(position).
func (e *Elevator) CurrentFloor() int {
	return int(math.Floor(e.Position))
}

// Direction is sign(destination - position): -1, 0 or 1. An elevator
// with no destination yet is idle.
func (e *Elevator) Direction() int {
	if !e.HasDestination {
		return 0
	}
	return domain.Sign(float64(e.Destination) - e.Position)
}

// IsMoving reports whether the elevator has a pending destination.
func (e *Elevator) IsMoving() bool {
	return e.Direction() != 0
}

// DistanceToDestination is the unsigned distance remaining.
func (e *Elevator) DistanceToDestination() float64 {
	if !e.HasDestination {
		return 0
	}
	return math.Abs(float64(e.Destination) - e.Position)
}

// IsFull reports whether every slot is occupied.
func (e *Elevator) IsFull() bool {
	for _, p := range e.Slots {
		if p == nil {
			return false
		}
	}
	return true
}

// PercentFull is the weight-based load fraction: total passenger weight
// over capacity*100, so 0..1 for weights up to 100.
func (e *Elevator) PercentFull() float64 {
	var totalWeight int
	for _, p := range e.Slots {
		if p != nil {
			totalWeight += p.Weight
		}
	}
	return float64(totalWeight) / (float64(e.Capacity) * 100)
}

// GoToFloor clamps n to [0, floorCount-1] and, if the elevator has no
// destination yet or n differs from the current one, retargets the
// elevator and bumps the move counter. Motion itself only happens inside
// tick; this never starts it directly.
func (e *Elevator) GoToFloor(n int) {
	if n < 0 {
		n = 0
	} else if n > e.floorCount-1 {
		n = e.floorCount - 1
	}
	if !e.HasDestination || n != e.Destination {
		e.Destination = n
		e.HasDestination = true
		e.Moves++
	}
}

// AddPassenger places p into a randomly chosen free slot and presses
// that passenger's destination button. Returns the chosen slot index,
// or false if the elevator is full.
func (e *Elevator) AddPassenger(p *domain.Passenger) (int, bool) {
	free := make([]int, 0, len(e.Slots))
	for i, s := range e.Slots {
		if s == nil {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return 0, false
	}
	slot := free[e.rng.Intn(len(free))]
	e.Slots[slot] = p
	if err := p.EnterElevator(e.Index, slot); err != nil {
		e.Slots[slot] = nil
		return 0, false
	}
	e.Buttons[p.DestinationFloor] = true
	return slot, true
}

// RemovePassenger finds p's slot and empties it. Returns false if p is
// not currently in this elevator.
func (e *Elevator) RemovePassenger(p *domain.Passenger) bool {
	for i, s := range e.Slots {
		if s == p {
			e.Slots[i] = nil
			return true
		}
	}
	return false
}

// SetIndicators sets the two direction-accept flags independently.
func (e *Elevator) SetIndicators(up, down bool) {
	e.GoingUpIndicator = up
	e.GoingDownIndicator = down
}

// Tick advances the elevator by dt seconds and returns true iff the
// elevator is paused or has just arrived (doors effectively open),
// signalling the backend to run arrival settlement.
//
// The velocity update below is computed from the pre-tick velocity and
// only clamped and stored after the position has already advanced by
// it. The resulting one-step lag between a velocity change and its
// effect on position is deliberate; callers must not "fix" the order.
func (e *Elevator) Tick(dt float64) bool {
	e.Pause = math.Max(0, e.Pause-dt)
	if !e.IsMoving() || e.Pause > 0 {
		return true
	}

	e.Position += e.Velocity * dt

	if e.DistanceToDestination() < ArrivalThreshold {
		e.Position = float64(e.Destination)
		e.Velocity = 0
		e.Buttons[e.CurrentFloor()] = false
		e.Pause = DoorPause
		return true
	}

	e.Velocity = e.nextVelocity(dt)
	if e.Velocity > e.MaxSpeed {
		e.Velocity = e.MaxSpeed
	} else if e.Velocity < -e.MaxSpeed {
		e.Velocity = -e.MaxSpeed
	}
	return false
}

func (e *Elevator) nextVelocity(dt float64) float64 {
	distance := e.DistanceToDestination()
	targetDirection := float64(e.Direction())

	switch {
	case e.Velocity == 0:
		return targetDirection * math.Min(distance*AccelDistanceFactor, Acceleration) * dt

	case domain.Sign(e.Velocity) != int(targetDirection):
		step := Deceleration * dt
		if e.Velocity > 0 {
			v := e.Velocity - step
			if v < 0 {
				v = 0
			}
			return v
		}
		v := e.Velocity + step
		if v > 0 {
			v = 0
		}
		return v

	default:
		stoppingDistance := (e.Velocity * e.Velocity) / (2 * Deceleration)
		if stoppingDistance*StoppingDistanceMargin < distance {
			return e.Velocity + targetDirection*math.Min(distance*AccelDistanceFactor, Acceleration)*dt
		}
		decel := math.Min(Deceleration*DecelerationCorrection, (e.Velocity*e.Velocity)/(2*distance))
		return e.Velocity - targetDirection*decel*dt
	}
}

// Snapshot copies the elevator's observable state by value.
func (e *Elevator) Snapshot() ElevatorSnapshot {
	pressed := make([]int, 0, len(e.Buttons))
	for floor, on := range e.Buttons {
		if on {
			pressed = append(pressed, floor)
		}
	}

	passengers := make([]*SlotSnapshot, len(e.Slots))
	for i, p := range e.Slots {
		if p != nil {
			passengers[i] = &SlotSnapshot{PassengerID: p.ID, Slot: i}
		}
	}

	var dest *int
	if e.HasDestination {
		d := e.Destination
		dest = &d
	}
	return ElevatorSnapshot{
		Index:              e.Index,
		Position:           e.Position,
		CurrentFloor:       e.CurrentFloor(),
		DestinationFloor:   dest,
		Velocity:           e.Velocity,
		PressedButtons:     pressed,
		Passengers:         passengers,
		GoingUpIndicator:   e.GoingUpIndicator,
		GoingDownIndicator: e.GoingDownIndicator,
		Capacity:           e.Capacity,
		PercentFull:        e.PercentFull(),
		Moves:              e.Moves,
	}
}

// SlotSnapshot identifies the passenger occupying a slot, or nil.
type SlotSnapshot struct {
	PassengerID uint64 `json:"passengerId"`
	Slot        int    `json:"slot"`
}

// ElevatorSnapshot is the immutable view handed to subscribers.
type ElevatorSnapshot struct {
	Index              int             `json:"index"`
	Position           float64         `json:"position"`
	CurrentFloor       int             `json:"currentFloor"`
	DestinationFloor   *int            `json:"destinationFloor,omitempty"`
	Velocity           float64         `json:"velocity"`
	PressedButtons     []int           `json:"buttons"`
	Passengers         []*SlotSnapshot `json:"passengers"`
	GoingUpIndicator   bool            `json:"goingUpIndicator"`
	GoingDownIndicator bool            `json:"goingDownIndicator"`
	Capacity           int             `json:"capacity"`
	PercentFull        float64         `json:"percentFull"`
	Moves              int             `json:"moves"`
}

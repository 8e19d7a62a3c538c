package domain

// PassengerState is the lifecycle stage of a passenger. Transitions are
// one-directional: waiting -> riding -> exited.
type PassengerState string

const (
	PassengerWaiting PassengerState = "waiting"
	PassengerRiding  PassengerState = "riding"
	PassengerExited  PassengerState = "exited"
)

// Passenger is owned exclusively by the backend. While riding, ElevatorIndex
// and Slot identify where it sits; the elevator <-> passenger relationship
// is a lookup key on both sides rather than a pointer cycle.
type Passenger struct {
	ID               uint64
	Weight           int
	StartingFloor    int
	DestinationFloor int
	State            PassengerState

	ElevatorIndex int // valid only while State == PassengerRiding
	Slot          int // valid only while State == PassengerRiding

	SpawnTimestamp       float64
	TransportedTimestamp float64
}

// NewPassenger creates a waiting passenger spawned at simulation time now.
func NewPassenger(id uint64, weight, startingFloor, destinationFloor int, now float64) *Passenger {
	return &Passenger{
		ID:               id,
		Weight:           weight,
		StartingFloor:    startingFloor,
		DestinationFloor: destinationFloor,
		State:            PassengerWaiting,
		ElevatorIndex:    -1,
		Slot:             -1,
		SpawnTimestamp:   now,
	}
}

// ShouldExitAt reports whether the passenger wants off at floor.
func (p *Passenger) ShouldExitAt(floor int) bool {
	return p.DestinationFloor == floor
}

// WantsUp reports whether the passenger's trip goes upward.
func (p *Passenger) WantsUp() bool {
	return p.DestinationFloor > p.StartingFloor
}

// CurrentFloor is the derived floor: while riding, the caller must supply
// the elevator's integer floor; otherwise it is the starting floor.
func (p *Passenger) CurrentFloor(elevatorFloor int) int {
	if p.State == PassengerRiding {
		return elevatorFloor
	}
	return p.StartingFloor
}

// EnterElevator transitions waiting -> riding, guarded against a passenger
// that is already in an elevator.
func (p *Passenger) EnterElevator(elevatorIndex, slot int) error {
	if p.State == PassengerRiding {
		return domainErrPassengerAlreadyRides(p.ID)
	}
	p.State = PassengerRiding
	p.ElevatorIndex = elevatorIndex
	p.Slot = slot
	return nil
}

// ExitElevator transitions riding -> exited, guarded against a passenger
// that is not currently in an elevator.
func (p *Passenger) ExitElevator(now float64) error {
	if p.State != PassengerRiding {
		return domainErrPassengerNotOnboard(p.ID)
	}
	p.State = PassengerExited
	p.ElevatorIndex = -1
	p.Slot = -1
	p.TransportedTimestamp = now
	return nil
}

func domainErrPassengerAlreadyRides(id uint64) error {
	return ErrPassengerAlreadyRides.WithContext("passenger_id", id)
}

func domainErrPassengerNotOnboard(id uint64) error {
	return ErrPassengerNotOnboard.WithContext("passenger_id", id)
}

// PassengerSnapshot is the immutable view of a passenger handed to
// subscribers.
type PassengerSnapshot struct {
	ID               uint64         `json:"id"`
	Weight           int            `json:"weight"`
	StartingFloor    int            `json:"startingFloor"`
	DestinationFloor int            `json:"destinationFloor"`
	CurrentFloor     int            `json:"currentFloor"`
	State            PassengerState `json:"state"`
	ElevatorIndex    *int           `json:"elevatorIndex,omitempty"`
	SlotInElevator   *int           `json:"slotInElevator,omitempty"`
}

// Snapshot copies the passenger's observable state by value. elevatorFloor
// is only consulted while riding.
func (p *Passenger) Snapshot(elevatorFloor int) PassengerSnapshot {
	s := PassengerSnapshot{
		ID:               p.ID,
		Weight:           p.Weight,
		StartingFloor:    p.StartingFloor,
		DestinationFloor: p.DestinationFloor,
		CurrentFloor:     p.CurrentFloor(elevatorFloor),
		State:            p.State,
	}
	if p.State == PassengerRiding {
		idx, slot := p.ElevatorIndex, p.Slot
		s.ElevatorIndex = &idx
		s.SlotInElevator = &slot
	}
	return s
}

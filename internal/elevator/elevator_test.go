package elevator

import (
	"math/rand"
	"testing"

	"github.com/dannycoates/elevatorsim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestElevator() *Elevator {
	return New(0, 4, 10, 2.0, rand.New(rand.NewSource(1)))
}

func TestElevator_GoToFloor_ClampsAndCountsMoves(t *testing.T) {
	e := newTestElevator()

	e.GoToFloor(-5)
	assert.Equal(t, 0, e.Destination)
	assert.True(t, e.HasDestination)
	assert.Equal(t, 1, e.Moves, "the first retarget counts even when clamped onto the current floor")

	e.GoToFloor(50)
	assert.Equal(t, 9, e.Destination)
	assert.Equal(t, 2, e.Moves)

	e.GoToFloor(9)
	assert.Equal(t, 2, e.Moves, "retargeting to the same destination must not bump moves")
}

func TestElevator_Tick_IdleWithNoDestinationChangeReturnsTrue(t *testing.T) {
	e := newTestElevator()
	assert.True(t, e.Tick(1.0/60))
}

func TestElevator_Tick_PausedReturnsTrueAndDoesNotMove(t *testing.T) {
	e := newTestElevator()
	e.GoToFloor(5)
	e.Pause = 0.5
	pos := e.Position

	arrived := e.Tick(1.0 / 60)
	assert.True(t, arrived)
	assert.Equal(t, pos, e.Position)
}

func TestElevator_Tick_EventuallyArrives(t *testing.T) {
	e := newTestElevator()
	e.GoToFloor(3)

	arrived := false
	for i := 0; i < 10000 && !arrived; i++ {
		arrived = e.Tick(1.0 / 60)
	}

	require.True(t, arrived)
	assert.InDelta(t, 3, e.Position, 1e-6)
	assert.Equal(t, 0.0, e.Velocity)
	assert.Equal(t, DoorPause, e.Pause)
}

func TestElevator_Tick_SpeedNeverExceedsMaxSpeed(t *testing.T) {
	e := newTestElevator()
	e.GoToFloor(9)

	for i := 0; i < 20000; i++ {
		if e.Tick(1.0 / 60) {
			break
		}
		if e.Velocity > e.MaxSpeed+1e-9 || e.Velocity < -e.MaxSpeed-1e-9 {
			t.Fatalf("velocity %v exceeds maxSpeed %v", e.Velocity, e.MaxSpeed)
		}
	}
}

func TestElevator_AddRemovePassenger(t *testing.T) {
	e := newTestElevator()
	p := domain.NewPassenger(1, 70, 0, 2, 0)

	slot, ok := e.AddPassenger(p)
	require.True(t, ok)
	assert.Equal(t, domain.PassengerRiding, p.State)
	assert.True(t, e.Buttons[2], "boarding presses the destination button")
	assert.Same(t, p, e.Slots[slot])

	ok = e.RemovePassenger(p)
	assert.True(t, ok)
	assert.Nil(t, e.Slots[slot])
}

func TestElevator_AddPassenger_FailsWhenFull(t *testing.T) {
	e := New(0, 1, 10, 2.0, rand.New(rand.NewSource(1)))
	first := domain.NewPassenger(1, 70, 0, 2, 0)
	second := domain.NewPassenger(2, 70, 0, 3, 0)

	_, ok := e.AddPassenger(first)
	require.True(t, ok)

	_, ok = e.AddPassenger(second)
	assert.False(t, ok)
}

func TestElevator_RemovePassenger_NotOnboard(t *testing.T) {
	e := newTestElevator()
	p := domain.NewPassenger(1, 70, 0, 2, 0)
	assert.False(t, e.RemovePassenger(p))
}

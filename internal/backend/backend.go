// Package backend owns every entity in a simulation run — floors,
// elevators, passengers and statistics — and drives the fixed per-tick
// order the rest of the core depends on: spawn, advance elevators,
// settle arrivals, evaluate the challenge, emit events.
package backend

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dannycoates/elevatorsim/internal/domain"
	"github.com/dannycoates/elevatorsim/internal/elevator"
	"github.com/dannycoates/elevatorsim/internal/eventbus"
	"github.com/dannycoates/elevatorsim/metrics"
)

const statsThrottleInterval = time.Second / 30

// tracer is resolved lazily against whatever TracerProvider
// internal/infra/observability installed globally at process startup
// (or the no-op provider, if telemetry is disabled); the backend never
// needs a direct dependency on the observability package for this.
var tracer = otel.Tracer("elevatorsim/backend")

// Backend is the simulation world. It is not safe for concurrent use;
// the core is single-threaded cooperative and assumes Tick and the
// controller invocation only ever run from the frame loop's single task.
type Backend struct {
	cfg    Config
	bus    *eventbus.Bus
	rng    *rand.Rand
	clock  Clock
	logger *slog.Logger

	floors     []*domain.Floor
	elevators  []*elevator.Elevator
	passengers []*domain.Passenger

	stats            domain.Stats
	isChallengeEnded bool

	elapsedSinceSpawn float64
	nextPassengerID   uint64
	lastStatsEmit     time.Time
	statsEmittedOnce  bool
}

// Option customizes a Backend at construction time.
type Option func(*Backend)

// WithRNG injects the random source driving spawn and slot selection,
// so tests can seed it for deterministic scenarios.
func WithRNG(rng *rand.Rand) Option {
	return func(b *Backend) { b.rng = rng }
}

// WithClock injects the wall clock backing stats-emission throttling.
func WithClock(clock Clock) Option {
	return func(b *Backend) { b.clock = clock }
}

// WithLogger attaches a structured logger; defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) { b.logger = logger }
}

// New initializes a fresh backend: builds floorCount floors and
// elevatorCount elevators (capacities assigned by index modulo the
// configured list), resets statistics, and primes the spawn timer so the
// first tick spawns immediately.
func New(cfg Config, bus *eventbus.Bus, opts ...Option) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{
		cfg:    cfg,
		bus:    bus,
		rng:    rand.New(rand.NewSource(1)),
		clock:  realClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.floors = make([]*domain.Floor, cfg.FloorCount)
	for i := range b.floors {
		b.floors[i] = domain.NewFloor(i)
	}

	b.elevators = make([]*elevator.Elevator, cfg.ElevatorCount)
	for i := range b.elevators {
		b.elevators[i] = elevator.New(i, cfg.capacityFor(i), cfg.FloorCount, cfg.SpeedFloorsPerSec, b.rng)
	}

	if cfg.SpawnRate > 0 {
		b.elapsedSinceSpawn = 1.001 / cfg.SpawnRate
	}

	b.bus.Publish(eventbus.ChallengeInitialized, eventbus.ChallengeInitializedPayload{})
	return b, nil
}

// Elevators exposes the live elevators for the controller bridge. The
// bridge is the only caller permitted to mutate them, and only through
// GoToFloor.
func (b *Backend) Elevators() []*elevator.Elevator { return b.elevators }

// Floors exposes the live floors for the controller bridge's read-only
// floor views.
func (b *Backend) Floors() []*domain.Floor { return b.floors }

// IsChallengeEnded reports whether the end condition has already fired;
// once true, Tick becomes a no-op.
func (b *Backend) IsChallengeEnded() bool { return b.isChallengeEnded }

// Tick advances the world by one fixed substep of dt seconds, in a
// fixed order: spawn, then per elevator in index order tick + arrival
// settlement, then remove exited passengers, then emit state_changed,
// then evaluate the end condition.
func (b *Backend) Tick(dt float64) {
	if b.isChallengeEnded {
		return
	}
	_, span := tracer.Start(context.Background(), "backend.tick",
		trace.WithAttributes(attribute.Float64("dt", dt)))
	defer span.End()

	start := b.clock.Now()

	b.stats.ElapsedTime += dt
	b.spawnPassengers(dt)

	for _, e := range b.elevators {
		if e.Tick(dt) {
			b.settleArrival(e)
		}
		metrics.SetElevatorKinematics(e.Index, e.Position, e.Velocity)
	}

	b.removeExited()
	b.syncMoveCount()
	b.observeWaitingPassengers()
	b.emitStateChanged(dt)
	b.evaluateEndCondition()

	metrics.ObserveTickDuration(b.clock.Now().Sub(start).Seconds())
}

// syncMoveCount keeps the aggregate move counter equal to the sum of
// each elevator's own monotone counter, since GoToFloor mutates the
// elevator directly through the controller bridge rather than through
// the backend.
func (b *Backend) syncMoveCount() {
	total := 0
	for _, e := range b.elevators {
		total += e.Moves
	}
	b.stats.MoveCount = total
}

// observeWaitingPassengers feeds every still-waiting passenger's current
// wait time into Stats.MaxWaitTime, so a passenger who is never served
// still trips a max-wait end condition, not only passengers who actually
// complete a trip.
func (b *Backend) observeWaitingPassengers() {
	for _, p := range b.passengers {
		if p.State == domain.PassengerWaiting {
			b.stats.ObserveWaiting(b.stats.ElapsedTime - p.SpawnTimestamp)
		}
	}
}

func (b *Backend) spawnPassengers(dt float64) {
	if b.cfg.SpawnRate <= 0 {
		return
	}
	interval := 1 / b.cfg.SpawnRate
	b.elapsedSinceSpawn += dt
	for b.elapsedSinceSpawn > interval {
		b.elapsedSinceSpawn -= interval
		b.spawnOne()
	}
}

// InjectPassenger manually spawns a passenger with a caller-chosen
// origin, destination and weight, bypassing the spawn-rate policy. It
// exists for scripted scenarios that need an exact passenger rather
// than a randomly drawn one.
func (b *Backend) InjectPassenger(origin, destination, weight int) *domain.Passenger {
	b.nextPassengerID++
	p := domain.NewPassenger(b.nextPassengerID, weight, origin, destination, b.stats.ElapsedTime)
	b.passengers = append(b.passengers, p)

	if destination > origin {
		b.floors[origin].PressButton(domain.DirectionUp)
	} else if destination < origin {
		b.floors[origin].PressButton(domain.DirectionDown)
	}

	metrics.IncPassengersSpawned()
	b.bus.Publish(eventbus.PassengerSpawned, eventbus.PassengerSpawnedPayload{
		Passenger: p.Snapshot(origin),
	})
	return p
}

func (b *Backend) spawnOne() {
	origin, destination, weight := spawnOriginDestinationWeight(b.rng, b.cfg.FloorCount)

	b.nextPassengerID++
	p := domain.NewPassenger(b.nextPassengerID, weight, origin, destination, b.stats.ElapsedTime)
	b.passengers = append(b.passengers, p)

	if destination > origin {
		b.floors[origin].PressButton(domain.DirectionUp)
	} else {
		b.floors[origin].PressButton(domain.DirectionDown)
	}

	metrics.IncPassengersSpawned()
	b.bus.Publish(eventbus.PassengerSpawned, eventbus.PassengerSpawnedPayload{
		Passenger: p.Snapshot(origin),
	})
}

// settleArrival runs the idempotent exit-then-board-then-clear sequence
// for one elevator that just opened its doors. Calling it twice for the
// same door-open is safe: once all eligible passengers have exited or
// boarded, a second call finds none left to act on.
func (b *Backend) settleArrival(e *elevator.Elevator) {
	floor := e.CurrentFloor()
	f := b.floors[floor]
	up := e.GoingUpIndicator && f.Up
	down := e.GoingDownIndicator && f.Down

	exited := b.exitPassengers(e, floor)
	boarded := b.boardPassengers(e, floor, up, down)

	if up && !b.anyWaitingUpAt(floor) {
		f.ClearButton(domain.DirectionUp)
	}
	if down && !b.anyWaitingDownAt(floor) {
		f.ClearButton(domain.DirectionDown)
	}

	if len(exited) > 0 {
		metrics.IncPassengersTransported(len(exited))
		b.bus.Publish(eventbus.PassengersExited, eventbus.PassengersExitedPayload{
			ElevatorIndex: e.Index, Floor: floor, Passengers: exited,
		})
	}
	if len(boarded) > 0 {
		b.bus.Publish(eventbus.PassengersBoarded, eventbus.PassengersBoardedPayload{
			ElevatorIndex: e.Index, Floor: floor, Passengers: boarded,
		})
	}
}

func (b *Backend) exitPassengers(e *elevator.Elevator, floor int) []domain.PassengerSnapshot {
	var exited []domain.PassengerSnapshot
	for _, p := range e.Slots {
		if p == nil || !p.ShouldExitAt(floor) {
			continue
		}
		waitTime := b.stats.ElapsedTime - p.SpawnTimestamp
		if !e.RemovePassenger(p) {
			continue
		}
		if err := p.ExitElevator(b.stats.ElapsedTime); err != nil {
			b.logger.Error("passenger invariant violation on exit", slog.Any("error", err))
			continue
		}
		b.stats.RecordTransport(waitTime)
		exited = append(exited, p.Snapshot(floor))
	}
	return exited
}

func (b *Backend) boardPassengers(e *elevator.Elevator, floor int, up, down bool) []domain.PassengerSnapshot {
	var boarded []domain.PassengerSnapshot
	for _, p := range b.passengers {
		if p.State != domain.PassengerWaiting || p.CurrentFloor(floor) != floor {
			continue
		}
		if e.IsFull() {
			break
		}
		wantsUp := p.DestinationFloor > floor
		if (wantsUp && up) || (!wantsUp && down) {
			if _, ok := e.AddPassenger(p); ok {
				boarded = append(boarded, p.Snapshot(floor))
			}
		}
	}
	return boarded
}

func (b *Backend) anyWaitingUpAt(floor int) bool {
	for _, p := range b.passengers {
		if p.State == domain.PassengerWaiting && p.StartingFloor == floor && p.DestinationFloor > floor {
			return true
		}
	}
	return false
}

func (b *Backend) anyWaitingDownAt(floor int) bool {
	for _, p := range b.passengers {
		if p.State == domain.PassengerWaiting && p.StartingFloor == floor && p.DestinationFloor < floor {
			return true
		}
	}
	return false
}

func (b *Backend) removeExited() {
	live := b.passengers[:0]
	for _, p := range b.passengers {
		if p.State != domain.PassengerExited {
			live = append(live, p)
		}
	}
	b.passengers = live
}

func (b *Backend) emitStateChanged(dt float64) {
	b.bus.Publish(eventbus.StateChanged, eventbus.StateChangedPayload{
		Floors:           b.floorSnapshots(),
		Elevators:        b.elevatorSnapshots(),
		Passengers:       b.passengerSnapshots(),
		Stats:            b.stats.Snapshot(),
		IsChallengeEnded: b.isChallengeEnded,
		Dt:               dt,
	})
}

func (b *Backend) evaluateEndCondition() {
	outcome := domain.Evaluate(b.cfg.EndCondition, b.stats)
	if outcome == domain.OutcomePending {
		b.emitStatsChangedThrottled()
		return
	}

	b.isChallengeEnded = true
	metrics.RecordChallengeOutcome(outcome == domain.OutcomeSucceeded)
	b.bus.Publish(eventbus.ChallengeEnded, eventbus.ChallengeEndedPayload{
		Succeeded: outcome == domain.OutcomeSucceeded,
	})
}

// emitStatsChangedThrottled is a "last-emit-was-longer-ago-than" gate:
// a minimum-interval filter backed by the wall clock, not a windowed
// rate limiter.
func (b *Backend) emitStatsChangedThrottled() {
	now := b.clock.Now()
	if b.statsEmittedOnce && now.Sub(b.lastStatsEmit) < statsThrottleInterval {
		metrics.IncStatsEmissionThrottled()
		return
	}
	b.lastStatsEmit = now
	b.statsEmittedOnce = true
	b.bus.Publish(eventbus.StatsChanged, eventbus.StatsChangedPayload{Stats: b.stats.Snapshot()})
}

// GetState returns the current world snapshot, independent of the
// event bus, for callers polling rather than subscribing.
func (b *Backend) GetState() eventbus.StateChangedPayload {
	return eventbus.StateChangedPayload{
		Floors:           b.floorSnapshots(),
		Elevators:        b.elevatorSnapshots(),
		Passengers:       b.passengerSnapshots(),
		Stats:            b.stats.Snapshot(),
		IsChallengeEnded: b.isChallengeEnded,
	}
}

// GetStats returns the current aggregate statistics.
func (b *Backend) GetStats() domain.Stats { return b.stats.Snapshot() }

// Cleanup disposes the backend; it is not reusable afterward.
func (b *Backend) Cleanup() {
	b.bus.Publish(eventbus.Cleanup, eventbus.CleanupPayload{})
	b.floors = nil
	b.elevators = nil
	b.passengers = nil
}

func (b *Backend) floorSnapshots() []domain.FloorSnapshot {
	out := make([]domain.FloorSnapshot, len(b.floors))
	for i, f := range b.floors {
		out[i] = f.Snapshot()
	}
	return out
}

func (b *Backend) elevatorSnapshots() []elevator.ElevatorSnapshot {
	out := make([]elevator.ElevatorSnapshot, len(b.elevators))
	for i, e := range b.elevators {
		out[i] = e.Snapshot()
	}
	return out
}

func (b *Backend) passengerSnapshots() []domain.PassengerSnapshot {
	out := make([]domain.PassengerSnapshot, len(b.passengers))
	for i, p := range b.passengers {
		floor := p.StartingFloor
		if p.State == domain.PassengerRiding && p.ElevatorIndex >= 0 && p.ElevatorIndex < len(b.elevators) {
			floor = b.elevators[p.ElevatorIndex].CurrentFloor()
		}
		out[i] = p.Snapshot(floor)
	}
	return out
}

package controller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dannycoates/elevatorsim/internal/domain"
	"github.com/dannycoates/elevatorsim/internal/elevator"
	"github.com/dannycoates/elevatorsim/internal/eventbus"
)

// tracer is resolved against whatever TracerProvider
// internal/infra/observability installed globally at process startup.
var tracer = otel.Tracer("elevatorsim/controller")

// World is the minimal surface the bridge needs from the backend: the
// live entities it builds views over. Depending on this narrow
// interface rather than *backend.Backend keeps the controller package
// free of a dependency back on backend.
type World interface {
	Elevators() []*elevator.Elevator
	Floors() []*domain.Floor
}

// Bridge isolates a Controller from the core: a single failing call is
// caught and turned into a usercode_error; a controller that keeps
// failing trips an internal circuit breaker so the frame loop stops
// re-invoking a wedged controller every tick.
type Bridge struct {
	world      World
	bus        *eventbus.Bus
	controller Controller
	logger     *slog.Logger

	breaker *circuitBreaker
	started bool
	Paused  bool
}

// BridgeOption customizes a Bridge at construction time.
type BridgeOption func(*Bridge)

// WithBreaker tunes the fault-isolation circuit breaker; defaults are
// 5 consecutive failures and a 2s reset timeout.
func WithBreaker(maxFailures int, resetTimeout time.Duration) BridgeOption {
	return func(br *Bridge) {
		br.breaker = newCircuitBreaker(maxFailures, resetTimeout, 1)
	}
}

// WithoutBreaker disables the circuit breaker entirely; faults still
// pause the bridge, but a resumed controller is always re-invoked.
func WithoutBreaker() BridgeOption {
	return func(br *Bridge) {
		br.breaker = nil
	}
}

// NewBridge wraps controller for world, publishing bridge events on bus.
func NewBridge(world World, bus *eventbus.Bus, ctrl Controller, logger *slog.Logger, opts ...BridgeOption) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	br := &Bridge{
		world:      world,
		bus:        bus,
		controller: ctrl,
		logger:     logger,
		breaker:    newCircuitBreaker(5, 2*time.Second, 1),
	}
	for _, opt := range opts {
		opt(br)
	}
	return br
}

// Invoke synthesizes views for the current world state and calls the
// controller's tick once. It returns true iff the controller was
// actually invoked (false when the circuit breaker is open or the
// bridge is already paused from a prior fault).
func (br *Bridge) Invoke(dt float64) (invoked bool) {
	if br.Paused || (br.breaker != nil && !br.breaker.allow()) {
		return false
	}

	if !br.started {
		br.started = true
		if starter, ok := br.controller.(Starter); ok {
			if err := br.safeStart(starter); err != nil {
				br.fault(err)
				return false
			}
		}
	}

	elevators := br.world.Elevators()
	floors := br.world.Floors()
	elevatorViews := make([]*ElevatorView, len(elevators))
	for i, e := range elevators {
		elevatorViews[i] = NewElevatorView(e)
	}
	floorViews := make([]*FloorView, len(floors))
	for i, f := range floors {
		floorViews[i] = NewFloorView(f)
	}

	_, span := tracer.Start(context.Background(), "controller.tick",
		trace.WithAttributes(
			attribute.Float64("dt", dt),
			attribute.Int("elevator_count", len(elevatorViews)),
		))
	err := br.safeTick(elevatorViews, floorViews, dt)
	if err != nil {
		span.RecordError(err)
	}
	span.End()
	if err != nil {
		br.fault(err)
		return false
	}

	if br.breaker != nil {
		br.breaker.recordSuccess()
	}
	return true
}

func (br *Bridge) safeTick(elevators []*ElevatorView, floors []*FloorView, dt float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("controller panic: %v", r)
		}
	}()
	return br.controller.Tick(elevators, floors, dt)
}

func (br *Bridge) safeStart(starter Starter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("controller panic in start: %v", r)
		}
	}()
	return starter.Start()
}

// fault records the failure on the circuit breaker, pauses the bridge,
// and emits usercode_error. The bridge is the only place that ever
// catches a controller error; the backend never sees it.
func (br *Bridge) fault(err error) {
	if br.breaker != nil {
		br.breaker.recordFailure()
	}
	br.Paused = true
	br.logger.Error("controller fault, pausing frame loop", slog.Any("error", err))
	br.bus.Publish(eventbus.UsercodeError, eventbus.UsercodeErrorPayload{Err: err})
}

// IsPaused reports whether a prior controller fault has paused the
// bridge; the frame loop treats this the same as its own pause flag.
func (br *Bridge) IsPaused() bool {
	return br.Paused
}

// Resume clears the pause set by a prior fault, allowing Invoke to call
// the controller again (subject to the circuit breaker's own state).
func (br *Bridge) Resume() {
	br.Paused = false
}

// BreakerState reports the circuit breaker's current state, exposed for
// health/metrics surfaces.
func (br *Bridge) BreakerState() string {
	if br.breaker == nil {
		return "disabled"
	}
	return br.breaker.State()
}

// Package frameloop is the real-time pacing layer: it turns wall-clock
// frames into scaled, substepped simulation time, invoking the
// controller bridge once per frame and then stepping the backend in
// fixed substeps until the scaled delta is exhausted.
package frameloop

import (
	"context"
	"log/slog"
	"time"

	"github.com/dannycoates/elevatorsim/internal/eventbus"
)

const defaultDtMax = 1.0 / 60

// World is the minimal surface the frame loop needs from the backend.
type World interface {
	Tick(dt float64)
	IsChallengeEnded() bool
	Cleanup()
}

// Bridge is the minimal surface the frame loop needs from the
// controller bridge.
type Bridge interface {
	Invoke(dt float64) bool
	IsPaused() bool
}

// Loop owns time scaling, pause state and substep splitting. It is not
// safe for concurrent use; Advance is meant to be called from one
// goroutine driven by a ticker or an external render loop.
type Loop struct {
	world  World
	bridge Bridge
	bus    *eventbus.Bus
	logger *slog.Logger

	TimeScale float64
	IsPaused  bool
	DtMax     float64

	lastTick   time.Time
	scope      context.Context
	cancel     context.CancelFunc
	terminated bool
}

// New creates a loop with timeScale=1, unpaused, dtMax=1/60s.
func New(world World, bridge Bridge, bus *eventbus.Bus, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	scope, cancel := context.WithCancel(context.Background())
	return &Loop{
		world:     world,
		bridge:    bridge,
		bus:       bus,
		logger:    logger,
		TimeScale: 1,
		DtMax:     defaultDtMax,
		scope:     scope,
		cancel:    cancel,
	}
}

// Scope is the cancellation token cleanup aborts; subscribers scoped to
// it are revoked together when Cleanup runs.
func (l *Loop) Scope() context.Context { return l.scope }

// SetTimeScale changes the time scale and emits timescale_changed.
func (l *Loop) SetTimeScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	l.TimeScale = scale
	l.bus.Publish(eventbus.TimescaleChanged, eventbus.TimescaleChangedPayload{TimeScale: scale})
}

// Start emits simulation_started; callers invoke Advance thereafter on
// whatever wall-clock cadence they choose (a time.Ticker in production,
// a manual loop in tests).
func (l *Loop) Start() {
	l.lastTick = time.Time{}
	l.bus.Publish(eventbus.SimulationStarted, eventbus.SimulationStartedPayload{})
}

// Advance runs one wall-clock frame at time now: computes the scaled,
// clamped delta, invokes the controller once, then steps the backend in
// fixed substeps until the delta is exhausted or the challenge ends.
func (l *Loop) Advance(now time.Time) {
	if l.terminated || l.IsPaused || l.bridge.IsPaused() || l.world.IsChallengeEnded() {
		l.lastTick = now
		return
	}
	if l.lastTick.IsZero() {
		l.lastTick = now
		return
	}

	rawDt := now.Sub(l.lastTick).Seconds()
	l.lastTick = now

	maxScaledDt := l.DtMax * 3 * l.TimeScale
	scaledDt := rawDt * l.TimeScale
	if scaledDt > maxScaledDt {
		scaledDt = maxScaledDt
	}
	if scaledDt <= 0 {
		return
	}

	if !l.bridge.Invoke(scaledDt) {
		// Controller faulted or the bridge is paused; the bridge itself
		// already emitted usercode_error. Stop stepping physics this
		// frame so state stays exactly as it was.
		return
	}

	remaining := scaledDt
	for remaining > 0 && !l.world.IsChallengeEnded() {
		step := remaining
		if step > l.DtMax {
			step = l.DtMax
		}
		l.world.Tick(step)
		remaining -= step
	}
}

// Cleanup aborts the scoped cancellation token, clears lastTick and
// disposes the backend. The loop is not reusable after this; a fresh
// Loop must be constructed over a freshly initialized backend.
func (l *Loop) Cleanup() {
	l.terminated = true
	l.cancel()
	l.lastTick = time.Time{}
	l.world.Cleanup()
}

// Package eventbus is a named publish/subscribe channel attached to the
// backend and the frame loop. Every entity that would otherwise need to
// "be an emitter" instead has the backend publish on its behalf here.
package eventbus

import (
	"context"
	"sync"
)

// Name identifies one of the fixed event channels the core emits on.
type Name string

const (
	StateChanged         Name = "state_changed"
	StatsChanged         Name = "stats_changed"
	PassengerSpawned     Name = "passenger_spawned"
	PassengersBoarded    Name = "passengers_boarded"
	PassengersExited     Name = "passengers_exited"
	ChallengeEnded       Name = "challenge_ended"
	ChallengeInitialized Name = "challenge_initialized"
	SimulationStarted    Name = "simulation_started"
	TimescaleChanged     Name = "timescale_changed"
	Cleanup              Name = "cleanup"
	UsercodeError        Name = "usercode_error"
)

// Handler receives a named event's payload. The concrete type of
// payload is determined by name; see the payload types in events.go.
type Handler func(payload any)

// Bus is a map-of-handlers pub/sub channel. All subscriptions made
// through a given scope can be revoked together by cancelling that
// scope's context, which is how the frame loop's cleanup operation
// detaches every subscriber at once without tracking them individually.
type Bus struct {
	mu       sync.Mutex
	handlers map[Name][]subscription
}

type subscription struct {
	ctx     context.Context
	handler Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[Name][]subscription)}
}

// Subscribe registers handler for name, active until scope is done.
// Dead subscriptions are pruned lazily on the next Publish to that name.
func (b *Bus) Subscribe(scope context.Context, name Name, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], subscription{ctx: scope, handler: handler})
}

// Publish invokes every live handler subscribed to name with payload,
// in subscription order.
func (b *Bus) Publish(name Name, payload any) {
	b.mu.Lock()
	subs := b.handlers[name]
	live := subs[:0]
	for _, s := range subs {
		if s.ctx.Err() == nil {
			live = append(live, s)
		}
	}
	b.handlers[name] = live
	// copy out from under the lock so a handler calling back into
	// Subscribe/Publish cannot deadlock.
	toCall := make([]subscription, len(live))
	copy(toCall, live)
	b.mu.Unlock()

	for _, s := range toCall {
		s.handler(payload)
	}
}

package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishInvokesSubscriber(t *testing.T) {
	b := New()
	scope, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got any
	b.Subscribe(scope, ChallengeEnded, func(payload any) { got = payload })

	b.Publish(ChallengeEnded, ChallengeEndedPayload{Succeeded: true})

	payload, ok := got.(ChallengeEndedPayload)
	assert.True(t, ok)
	assert.True(t, payload.Succeeded)
}

func TestBus_CancelledScopeStopsDelivery(t *testing.T) {
	b := New()
	scope, cancel := context.WithCancel(context.Background())

	calls := 0
	b.Subscribe(scope, StateChanged, func(payload any) { calls++ })

	b.Publish(StateChanged, StateChangedPayload{})
	assert.Equal(t, 1, calls)

	cancel()
	b.Publish(StateChanged, StateChangedPayload{})
	assert.Equal(t, 1, calls, "a cancelled subscription must not receive further events")
}

func TestBus_MultipleSubscribersAllReceive(t *testing.T) {
	b := New()
	scope, cancel := context.WithCancel(context.Background())
	defer cancel()

	var a, c int
	b.Subscribe(scope, Cleanup, func(payload any) { a++ })
	b.Subscribe(scope, Cleanup, func(payload any) { c++ })

	b.Publish(Cleanup, CleanupPayload{})

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, c)
}

package controller

import (
	"sync"
	"time"
)

// circuitBreakerState is the state of a controller's fault-isolation
// circuit breaker.
type circuitBreakerState int

const (
	cbClosed circuitBreakerState = iota
	cbOpen
	cbHalfOpen
)

// circuitBreaker isolates a controller that faults on many consecutive
// ticks from the rest of the core. A single usercode_error already
// pauses the frame loop; the breaker exists for the case where a caller
// resumes a wedged controller and it keeps throwing. It trips to open
// after maxFailures and refuses to invoke the controller again until
// resetTimeout has passed, then allows one probing half-open call.
type circuitBreaker struct {
	mu           sync.Mutex
	state        circuitBreakerState
	failureCount int
	successCount int
	nextRetry    time.Time

	maxFailures   int
	resetTimeout  time.Duration
	halfOpenLimit int
}

func newCircuitBreaker(maxFailures int, resetTimeout time.Duration, halfOpenLimit int) *circuitBreaker {
	return &circuitBreaker{
		maxFailures:   maxFailures,
		resetTimeout:  resetTimeout,
		halfOpenLimit: halfOpenLimit,
	}
}

// allow reports whether the next controller call should happen at all.
func (cb *circuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case cbClosed:
		return true
	case cbOpen:
		if time.Now().After(cb.nextRetry) {
			cb.state = cbHalfOpen
			cb.successCount = 0
			return true
		}
		return false
	case cbHalfOpen:
		return cb.successCount < cb.halfOpenLimit
	default:
		return false
	}
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	if cb.state == cbHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.halfOpenLimit {
			cb.state = cbClosed
		}
	}
}

func (cb *circuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	if cb.state == cbHalfOpen {
		cb.state = cbOpen
		cb.nextRetry = time.Now().Add(cb.resetTimeout)
		return
	}
	if cb.failureCount >= cb.maxFailures {
		cb.state = cbOpen
		cb.nextRetry = time.Now().Add(cb.resetTimeout)
	}
}

func (cb *circuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case cbOpen:
		return "open"
	case cbHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

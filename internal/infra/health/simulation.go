package health

import (
	"context"
	"time"
)

// BackendStatus is the narrow view of the simulation backend the
// readiness check needs, so this package stays free of a dependency on
// the backend package itself.
type BackendStatus interface {
	IsChallengeEnded() bool
}

type backendChecker struct {
	name    string
	backend BackendStatus
}

// NewBackendChecker reports the simulation backend as healthy so long
// as it exists; a backend whose challenge has ended stays healthy, just
// flagged, since the process still serves the final snapshot over
// /v1/state and /ws/state.
func NewBackendChecker(name string, backend BackendStatus) Checker {
	return &backendChecker{name: name, backend: backend}
}

func (c *backendChecker) Name() string { return c.name }

func (c *backendChecker) Check(ctx context.Context) Result {
	start := time.Now()
	if c.backend == nil {
		return Result{
			Name:      c.name,
			Status:    StatusUnhealthy,
			Message:   "backend not initialized",
			Duration:  time.Since(start),
			Timestamp: time.Now(),
		}
	}

	ended := c.backend.IsChallengeEnded()
	message := "running"
	if ended {
		message = "challenge ended"
	}
	return Result{
		Name:      c.name,
		Status:    StatusHealthy,
		Message:   message,
		Details:   map[string]any{"challenge_ended": ended},
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}
}

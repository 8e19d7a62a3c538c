package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name   string
	status Status
	calls  int
}

func (c *stubChecker) Name() string { return c.name }

func (c *stubChecker) Check(ctx context.Context) Result {
	c.calls++
	return Result{Name: c.name, Status: c.status, Timestamp: time.Now()}
}

func TestService_Check_UnknownName(t *testing.T) {
	s := NewService(time.Second)
	_, err := s.Check(context.Background(), "nope")
	assert.Error(t, err)
}

func TestService_Check_CachesWithinTTL(t *testing.T) {
	s := NewService(time.Minute)
	c := &stubChecker{name: "stub", status: StatusHealthy}
	s.Register(c)

	_, err := s.Check(context.Background(), "stub")
	require.NoError(t, err)
	_, err = s.Check(context.Background(), "stub")
	require.NoError(t, err)

	assert.Equal(t, 1, c.calls, "second check within the TTL must hit the cache")
}

func TestService_Overall_WorstStatusWins(t *testing.T) {
	s := NewService(time.Minute)
	s.Register(&stubChecker{name: "a", status: StatusHealthy})
	s.Register(&stubChecker{name: "b", status: StatusDegraded})

	overall, results := s.Overall(context.Background())
	assert.Equal(t, StatusDegraded, overall)
	assert.Len(t, results, 2)

	s.Register(&stubChecker{name: "c", status: StatusUnhealthy})
	overall, _ = s.Overall(context.Background())
	assert.Equal(t, StatusUnhealthy, overall)
}

func TestReadinessChecker_AggregatesDependencies(t *testing.T) {
	ready := NewReadinessChecker(&stubChecker{name: "dep", status: StatusHealthy})
	assert.Equal(t, StatusHealthy, ready.Check(context.Background()).Status)

	notReady := NewReadinessChecker(&stubChecker{name: "dep", status: StatusUnhealthy})
	result := notReady.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Contains(t, result.Message, "dep")
}

func TestBackendChecker(t *testing.T) {
	nilResult := NewBackendChecker("backend", nil).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, nilResult.Status)

	running := NewBackendChecker("backend", fakeBackend(false)).Check(context.Background())
	assert.Equal(t, StatusHealthy, running.Status)
	assert.Equal(t, "running", running.Message)

	ended := NewBackendChecker("backend", fakeBackend(true)).Check(context.Background())
	assert.Equal(t, StatusHealthy, ended.Status)
	assert.Equal(t, "challenge ended", ended.Message)
}

type fakeBackend bool

func (f fakeBackend) IsChallengeEnded() bool { return bool(f) }

func TestLivenessAndRuntimeCheckers(t *testing.T) {
	live := NewLivenessChecker().Check(context.Background())
	assert.Equal(t, StatusHealthy, live.Status)
	assert.Contains(t, live.Details, "uptime_seconds")

	rt := NewRuntimeChecker(1).Check(context.Background())
	assert.Equal(t, StatusDegraded, rt.Status, "a one-goroutine limit is always exceeded")

	rt = NewRuntimeChecker(1_000_000).Check(context.Background())
	assert.Equal(t, StatusHealthy, rt.Status)
}

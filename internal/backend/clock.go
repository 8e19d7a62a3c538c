package backend

import "time"

// Clock abstracts wall-clock time so the stats-throttling gate can be
// tested without sleeping. The zero value is unusable; use realClock{}
// or a fake in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

package backend

import (
	"github.com/dannycoates/elevatorsim/internal/domain"
)

// Config configures a single simulation run. It is constructed by the
// caller (typically internal/infra/config, loaded from the process
// environment) rather than read from the environment directly, so the
// backend itself has no dependency on caarlos0/env.
type Config struct {
	FloorCount         int
	ElevatorCount      int
	ElevatorCapacities []int
	SpawnRate          float64 // passengers/sec; zero disables spawning entirely
	SpeedFloorsPerSec  float64
	EndCondition       domain.EndCondition
}

// Validate turns malformed configuration into a *domain.DomainError
// instead of letting the backend panic or silently misbehave.
func (c Config) Validate() error {
	if c.FloorCount < 2 {
		return domain.ErrInvalidFloorCount.WithContext("floorCount", c.FloorCount)
	}
	if c.ElevatorCount < 1 {
		return domain.ErrInvalidElevatorCount.WithContext("elevatorCount", c.ElevatorCount)
	}
	if len(c.ElevatorCapacities) == 0 {
		return domain.ErrInvalidCapacity.WithContext("elevatorCapacities", c.ElevatorCapacities)
	}
	for _, cap := range c.ElevatorCapacities {
		if cap <= 0 {
			return domain.ErrInvalidCapacity.WithContext("capacity", cap)
		}
	}
	if c.SpeedFloorsPerSec <= 0 {
		return domain.NewValidationError("speedFloorsPerSec must be positive", nil).WithContext("speedFloorsPerSec", c.SpeedFloorsPerSec)
	}
	if c.SpawnRate < 0 {
		return domain.ErrInvalidSpawnRate.WithContext("spawnRate", c.SpawnRate)
	}
	return nil
}

// capacityFor returns the capacity assigned to elevator i, wrapping by
// modulo when fewer capacities than elevators are configured.
func (c Config) capacityFor(i int) int {
	return c.ElevatorCapacities[i%len(c.ElevatorCapacities)]
}

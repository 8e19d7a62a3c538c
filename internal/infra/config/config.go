// Package config loads the process configuration from the environment:
// one Config struct parsed by caarlos0/env, environment-specific
// default overrides, then a validation pass that turns bad input into a
// *domain.DomainError instead of letting the backend panic.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env"

	"github.com/dannycoates/elevatorsim/internal/backend"
	"github.com/dannycoates/elevatorsim/internal/domain"
	"github.com/dannycoates/elevatorsim/internal/infra/observability"
)

// Config is the full process configuration: simulation parameters plus
// the ambient HTTP/observability surface around them.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`

	// Server configuration.
	Port            int           `env:"PORT" envDefault:"6660"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	ShutdownGrace   time.Duration `env:"SERVER_SHUTDOWN_GRACE" envDefault:"2s"`

	// Simulation configuration, bridged to backend.Config.
	FloorCount         int     `env:"FLOOR_COUNT" envDefault:"10"`
	ElevatorCount      int     `env:"ELEVATOR_COUNT" envDefault:"2"`
	ElevatorCapacities string  `env:"ELEVATOR_CAPACITIES" envDefault:"4"` // comma-separated, wraps by modulo
	SpawnRatePerSec    float64 `env:"SPAWN_RATE_PER_SEC" envDefault:"0.5"`
	SpeedFloorsPerSec  float64 `env:"SPEED_FLOORS_PER_SEC" envDefault:"2.6"`

	// End condition: Kind selects which of N/T/W/M are meaningful.
	EndConditionKind string  `env:"END_CONDITION" envDefault:"demo"`
	EndConditionN    int     `env:"END_CONDITION_N" envDefault:"10"`
	EndConditionT    float64 `env:"END_CONDITION_TIME_SECONDS" envDefault:"60"`
	EndConditionW    float64 `env:"END_CONDITION_MAX_WAIT_SECONDS" envDefault:"20"`
	EndConditionM    int     `env:"END_CONDITION_MOVES" envDefault:"50"`

	// HTTP configuration.
	RateLimitRPM       int    `env:"RATE_LIMIT_RPM" envDefault:"300"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Monitoring.
	MetricsEnabled   bool `env:"METRICS_ENABLED" envDefault:"true"`
	WebSocketEnabled bool `env:"WEBSOCKET_ENABLED" envDefault:"true"`

	// Circuit breaker isolating a controller that faults on many
	// consecutive ticks (internal/controller.Bridge).
	CircuitBreakerEnabled      bool          `env:"CIRCUIT_BREAKER_ENABLED" envDefault:"true"`
	CircuitBreakerMaxFailures  int           `env:"CIRCUIT_BREAKER_MAX_FAILURES" envDefault:"5"`
	CircuitBreakerResetTimeout time.Duration `env:"CIRCUIT_BREAKER_RESET_TIMEOUT" envDefault:"30s"`

	// OpenTelemetry (internal/infra/observability).
	OTelServiceName     string `env:"OTEL_SERVICE_NAME" envDefault:"elevatorsim"`
	OTelExporterOTLPURL string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
}

// InitConfig parses the process environment into a Config, applies
// environment-specific defaults, and validates the result.
func InitConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	applyEnvironmentDefaults(&cfg)

	if err := validateConfiguration(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvironmentDefaults nudges a handful of values per the
// development/testing/production split.
func applyEnvironmentDefaults(cfg *Config) {
	switch cfg.Environment {
	case "development", "dev":
		if cfg.LogLevel == "INFO" {
			cfg.LogLevel = "DEBUG"
		}
	case "testing", "test":
		cfg.LogLevel = "WARN"
		cfg.MetricsEnabled = false
		cfg.WebSocketEnabled = false
	case "production", "prod":
		cfg.LogLevel = "WARN"
	}
}

// validateConfiguration turns malformed configuration into a
// *domain.DomainError instead of letting the backend panic.
func validateConfiguration(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return domain.NewValidationError("port must be between 1 and 65535", nil).
			WithContext("port", cfg.Port)
	}
	if cfg.FloorCount < 2 {
		return domain.ErrInvalidFloorCount.WithContext("floorCount", cfg.FloorCount)
	}
	if cfg.ElevatorCount < 1 {
		return domain.ErrInvalidElevatorCount.WithContext("elevatorCount", cfg.ElevatorCount)
	}
	if _, err := parseCapacities(cfg.ElevatorCapacities); err != nil {
		return domain.NewValidationError("invalid ELEVATOR_CAPACITIES", err).
			WithContext("elevatorCapacities", cfg.ElevatorCapacities)
	}
	if cfg.IsProduction() && cfg.CORSAllowedOrigins == "*" {
		return domain.NewValidationError("CORS wildcard not allowed in production", nil).
			WithContext("environment", cfg.Environment)
	}
	return nil
}

// IsProduction reports whether Environment names a production deploy.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment reports whether Environment names a development deploy.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsTesting reports whether Environment names a testing deploy.
func (c *Config) IsTesting() bool {
	return c.Environment == "testing" || c.Environment == "test"
}

// BackendConfig builds the internal/backend.Config this process
// configuration describes. Backend.New runs its own validation on the
// result, so InitConfig's checks above only need to cover what Config
// itself can detect before handing off.
func (c *Config) BackendConfig() (backend.Config, error) {
	capacities, err := parseCapacities(c.ElevatorCapacities)
	if err != nil {
		return backend.Config{}, err
	}
	return backend.Config{
		FloorCount:         c.FloorCount,
		ElevatorCount:      c.ElevatorCount,
		ElevatorCapacities: capacities,
		SpawnRate:          c.SpawnRatePerSec,
		SpeedFloorsPerSec:  c.SpeedFloorsPerSec,
		EndCondition:       c.EndCondition(),
	}, nil
}

// EndCondition builds the domain.EndCondition this configuration
// describes.
func (c *Config) EndCondition() domain.EndCondition {
	switch strings.ToLower(c.EndConditionKind) {
	case "time", "transport_n_within_time":
		return domain.TransportNWithinTime(c.EndConditionN, c.EndConditionT)
	case "max_wait", "transport_n_with_max_wait":
		return domain.TransportNWithMaxWait(c.EndConditionN, c.EndConditionW)
	case "time_and_max_wait", "transport_n_within_time_and_max_wait":
		return domain.TransportNWithinTimeAndMaxWait(c.EndConditionN, c.EndConditionT, c.EndConditionW)
	case "moves", "transport_n_within_moves":
		return domain.TransportNWithinMoves(c.EndConditionN, c.EndConditionM)
	default:
		return domain.DemoEndCondition()
	}
}

// ObservabilityConfig builds the observability.Config this process
// configuration describes.
func (c *Config) ObservabilityConfig() observability.Config {
	return observability.Config{
		Enabled:       c.MetricsEnabled,
		ServiceName:   c.OTelServiceName,
		Environment:   c.Environment,
		OTLPEndpoint:  c.OTelExporterOTLPURL,
		OTLPInsecure:  true,
		SamplingRatio: 1.0,
	}
}

// GetEnvironmentInfo summarizes the running configuration for startup
// logging.
func (c *Config) GetEnvironmentInfo() map[string]any {
	return map[string]any{
		"environment":     c.Environment,
		"floor_count":     c.FloorCount,
		"elevator_count":  c.ElevatorCount,
		"spawn_rate":      c.SpawnRatePerSec,
		"end_condition":   c.EndConditionKind,
		"metrics_enabled": c.MetricsEnabled,
		"websocket":       c.WebSocketEnabled,
	}
}

func parseCapacities(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	capacities := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("capacity %q is not an integer: %w", p, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("capacity %d must be positive", n)
		}
		capacities = append(capacities, n)
	}
	if len(capacities) == 0 {
		return nil, fmt.Errorf("at least one capacity is required")
	}
	return capacities, nil
}

// Package observability wires OpenTelemetry tracing and metrics for the
// simulation process: a real tracer/meter pair when enabled, with traces
// OTLP-exported when an endpoint is configured and kept local otherwise,
// and no-op implementations when disabled. There is no DataDog or
// Elastic integration here — those would be fabricated dependencies this
// module never actually imports.
package observability

import "time"

// Config controls the OpenTelemetry provider built by NewTelemetryProvider.
type Config struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"true"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"elevatorsim"`
	Environment string `env:"ENV" envDefault:"development"`

	// OTLPEndpoint selects the trace exporter: empty means spans are
	// created locally and never exported, set means traces are exported
	// over OTLP/gRPC. Metrics are not exported over OTLP either way.
	OTLPEndpoint string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTLPInsecure bool          `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	ExportTimeout time.Duration `env:"OTEL_EXPORTER_OTLP_TIMEOUT" envDefault:"10s"`
	SamplingRatio float64       `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1.0"`
}

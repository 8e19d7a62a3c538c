package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TelemetryProvider exposes the tracer and meter the rest of the process
// instruments against. When Config.OTLPEndpoint is empty the tracer
// provider stays local (spans are created but never exported) and the
// meter provider collects instruments without a periodic reader attached
// (Prometheus, via the metrics package, remains this process's exported
// metrics backend — the SDK meter exists so otel instruments created
// against it are valid, not to duplicate the /metrics endpoint).
type TelemetryProvider struct {
	config     Config
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
	shutdown   func(context.Context) error
	shutdownMP func(context.Context) error
}

// NewTelemetryProvider builds the tracer/meter pair described by cfg. If
// cfg.Enabled is false it returns a provider backed entirely by otel's
// no-op implementations, so call sites never need a nil check.
func NewTelemetryProvider(ctx context.Context, cfg Config, logger *slog.Logger) (*TelemetryProvider, error) {
	if !cfg.Enabled {
		return &TelemetryProvider{
			config:     cfg,
			logger:     logger,
			tracer:     otel.Tracer(cfg.ServiceName),
			meter:      otel.Meter(cfg.ServiceName),
			shutdown:   func(context.Context) error { return nil },
			shutdownMP: func(context.Context) error { return nil },
		}, nil
	}

	res, err := sdkresource.New(ctx,
		sdkresource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRatio)),
	)
	shutdown := func(ctx context.Context) error { return tp.Shutdown(ctx) }

	if cfg.OTLPEndpoint != "" {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		client := otlptracegrpc.NewClient(opts...)
		exporter, err := otlptrace.New(ctx, client)
		if err != nil {
			return nil, fmt.Errorf("failed to build otlp trace exporter: %w", err)
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRatio)),
			sdktrace.WithBatcher(exporter),
		)
		shutdown = func(ctx context.Context) error { return tp.Shutdown(ctx) }
		logger.Info("otlp trace exporter configured", slog.String("endpoint", cfg.OTLPEndpoint))
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
	shutdownMP := func(ctx context.Context) error { return mp.Shutdown(ctx) }

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("telemetry provider initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.Bool("otlp_enabled", cfg.OTLPEndpoint != ""))

	return &TelemetryProvider{
		config:     cfg,
		logger:     logger,
		tracer:     tp.Tracer(cfg.ServiceName),
		meter:      mp.Meter(cfg.ServiceName),
		shutdown:   shutdown,
		shutdownMP: shutdownMP,
	}, nil
}

// Tracer returns the provider's tracer.
func (tp *TelemetryProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Meter returns the provider's meter.
func (tp *TelemetryProvider) Meter() metric.Meter {
	return tp.meter
}

// StartSpan starts a span with the given attributes attached.
func (tp *TelemetryProvider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tp.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Shutdown flushes and releases the underlying tracer and meter providers.
func (tp *TelemetryProvider) Shutdown(ctx context.Context) error {
	var err error
	if tp.shutdown != nil {
		err = tp.shutdown(ctx)
	}
	if tp.shutdownMP != nil {
		if mpErr := tp.shutdownMP(ctx); mpErr != nil && err == nil {
			err = mpErr
		}
	}
	return err
}

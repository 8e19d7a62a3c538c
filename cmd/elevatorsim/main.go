package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dannycoates/elevatorsim/internal/backend"
	"github.com/dannycoates/elevatorsim/internal/constants"
	"github.com/dannycoates/elevatorsim/internal/controller"
	"github.com/dannycoates/elevatorsim/internal/controller/scan"
	"github.com/dannycoates/elevatorsim/internal/eventbus"
	"github.com/dannycoates/elevatorsim/internal/frameloop"
	httpPkg "github.com/dannycoates/elevatorsim/internal/http"
	"github.com/dannycoates/elevatorsim/internal/infra/config"
	"github.com/dannycoates/elevatorsim/internal/infra/logging"
	"github.com/dannycoates/elevatorsim/internal/infra/observability"
)

// frameRate paces Advance calls; the loop itself substeps internally
// to the fixed physics step, so this only needs to be fast enough for
// a smooth render tick.
const frameRate = 60

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		slog.Error("failed to initialize configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	envInfo := cfg.GetEnvironmentInfo()
	slog.InfoContext(ctx, "elevator simulation starting up",
		slog.String("environment", cfg.Environment),
		slog.String("log_level", cfg.LogLevel),
		slog.Int("port", cfg.Port),
		slog.Bool("metrics_enabled", cfg.MetricsEnabled),
		slog.Bool("websocket_enabled", cfg.WebSocketEnabled),
		slog.Any("config_summary", envInfo))

	telemetry, err := observability.NewTelemetryProvider(ctx, cfg.ObservabilityConfig(), slog.Default())
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	backendCfg, err := cfg.BackendConfig()
	if err != nil {
		slog.ErrorContext(ctx, "invalid backend configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	bus := eventbus.New()
	sim, err := backend.New(backendCfg, bus, backend.WithLogger(logging.ComponentLogger(constants.ComponentBackend)))
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctrl := scan.New()
	breakerOpt := controller.WithBreaker(cfg.CircuitBreakerMaxFailures, cfg.CircuitBreakerResetTimeout)
	if !cfg.CircuitBreakerEnabled {
		breakerOpt = controller.WithoutBreaker()
	}
	bridge := controller.NewBridge(sim, bus, ctrl, logging.ComponentLogger(constants.ComponentBridge), breakerOpt)
	loop := frameloop.New(sim, bridge, bus, logging.ComponentLogger(constants.ComponentFrameLoop))

	server := httpPkg.NewServer(cfg, sim, bus, sim, slog.Default())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "starting HTTP server",
			slog.Int("port", cfg.Port),
			slog.String("environment", cfg.Environment))

		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	loop.Start()
	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()

	slog.InfoContext(ctx, "simulation loop started", slog.Int("frame_rate", frameRate))

	for {
		select {
		case err := <-serverErrCh:
			slog.ErrorContext(ctx, "server startup failed", slog.String("error", err.Error()))
			shutdown(ctx, server, loop, cfg)
			os.Exit(1)

		case sig := <-quit:
			slog.InfoContext(ctx, "received shutdown signal",
				slog.String("signal", sig.String()),
				slog.Duration("shutdown_timeout", cfg.ShutdownTimeout))
			cancel()
			shutdown(ctx, server, loop, cfg)
			return

		case now := <-ticker.C:
			loop.Advance(now)
		}
	}
}

// shutdown stops the HTTP server and the simulation loop, then waits
// out the configured grace period before the process exits.
func shutdown(ctx context.Context, server *httpPkg.Server, loop *frameloop.Loop, cfg *config.Config) {
	slog.InfoContext(ctx, "shutting down")

	if err := server.Shutdown(); err != nil {
		slog.ErrorContext(ctx, "HTTP server shutdown failed", slog.String("error", err.Error()))
	} else {
		slog.InfoContext(ctx, "HTTP server shutdown completed")
	}

	loop.Cleanup()

	select {
	case <-time.After(cfg.ShutdownGrace):
		slog.InfoContext(ctx, "graceful shutdown completed",
			slog.Duration("grace_period", cfg.ShutdownGrace))
	}
}

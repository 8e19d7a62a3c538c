package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dannycoates/elevatorsim/internal/constants"
	"github.com/dannycoates/elevatorsim/internal/eventbus"
	"github.com/dannycoates/elevatorsim/internal/infra/config"
	"github.com/dannycoates/elevatorsim/internal/infra/health"
)

// Server is the HTTP front door to the simulation: a point-in-time v1
// API, a push-style /ws/state feed, liveness/readiness probes and a
// Prometheus scrape endpoint, all served from one *http.Server.
type Server struct {
	httpServer    *http.Server
	cfg           *config.Config
	logger        *slog.Logger
	healthService *health.Service
	wsHandler     *stateStreamHandler
}

// NewServer builds the HTTP server. state provides point-in-time
// snapshots for the v1 API and the /ws/state initial frame; bus is
// where /ws/state subscribes for live updates; backend feeds the
// readiness check.
func NewServer(cfg *config.Config, state StateProvider, bus *eventbus.Bus, backendStatus health.BackendStatus, logger *slog.Logger) *Server {
	s := &Server{
		cfg:           cfg,
		logger:        logger.With(slog.String("component", constants.ComponentHTTPServer)),
		healthService: health.NewService(5 * time.Second),
	}

	s.setupHealthChecks(backendStatus)

	handlers := NewHandlers(state, s.logger)
	s.wsHandler = newStateStreamHandler(bus, state.GetState, s.logger.With(slog.String("component", constants.ComponentWebSocket)))

	rateLimiter := NewRateLimitMiddleware(cfg.RateLimitRPM, s.logger)
	middlewareChain := ChainMiddleware(
		RequestIDMiddleware(),
		LoggingMiddleware(s.logger),
		RecoveryMiddleware(s.logger),
		CORSMiddleware(cfg.CORSAllowedOrigins),
		SecurityHeadersMiddleware(),
		rateLimiter.Handler(),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1", handlers.APIInfoHandler)
	mux.HandleFunc("/v1/state", handlers.StateHandler)
	mux.HandleFunc("/v1/stats", handlers.StatsHandler)

	mux.HandleFunc("/health", s.livenessHandler)
	mux.HandleFunc("/health/live", s.livenessHandler)
	mux.HandleFunc("/health/ready", s.readinessHandler)

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	if cfg.WebSocketEnabled {
		mux.Handle("/ws/state", s.wsHandler)
	}

	var handler http.Handler = mux
	handler = middlewareChain(handler)
	handler = otelhttp.NewHandler(handler, "elevatorsim.http")

	addr := fmt.Sprintf(":%d", cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) setupHealthChecks(backendStatus health.BackendStatus) {
	s.healthService.Register(health.NewLivenessChecker())
	s.healthService.Register(health.NewRuntimeChecker(1000))

	backendChecker := health.NewBackendChecker("backend", backendStatus)
	s.healthService.Register(backendChecker)
	s.healthService.Register(health.NewReadinessChecker(backendChecker))

	s.logger.Info("health checks initialized", slog.Int("registered_checkers", 4))
}

func (s *Server) livenessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeCheckResult(w, r, "liveness")
}

func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeCheckResult(w, r, "readiness")
}

func (s *Server) writeCheckResult(w http.ResponseWriter, r *http.Request, name string) {
	result, err := s.healthService.Check(r.Context(), name)
	if err != nil {
		http.Error(w, fmt.Sprintf("%s check failed", name), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", constants.ContentTypeJSON)
	if result.Status == health.StatusHealthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to encode health response", slog.String("error", err.Error()))
	}
}

// Handler exposes the fully wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server until it is shut down. It returns
// http.ErrServerClosed on a clean Shutdown, matching net/http.Server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server and closes any live
// /ws/state connections.
func (s *Server) Shutdown() error {
	s.wsHandler.closeAll()
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/dannycoates/elevatorsim/internal/constants"
	"github.com/dannycoates/elevatorsim/internal/domain"
	"github.com/dannycoates/elevatorsim/internal/eventbus"
	"github.com/dannycoates/elevatorsim/internal/infra/logging"
)

// StateProvider is the narrow surface handlers need from the backend: a
// point-in-time snapshot for a poll-style request, independent of the
// push-style /ws/state feed.
type StateProvider interface {
	GetState() eventbus.StateChangedPayload
	GetStats() domain.Stats
}

// Handlers holds the simulation-facing v1 API handlers.
type Handlers struct {
	state  StateProvider
	logger *slog.Logger
}

// NewHandlers builds the v1 API handlers over state.
func NewHandlers(state StateProvider, logger *slog.Logger) *Handlers {
	return &Handlers{state: state, logger: logger}
}

// APIInfoResponse describes the available endpoints (GET /v1).
type APIInfoResponse struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

// APIInfoHandler answers GET /v1 with the endpoint catalog.
func (h *Handlers) APIInfoHandler(w http.ResponseWriter, r *http.Request) {
	requestID := logging.RequestID(r.Context())
	rw := NewResponseWriter(w, h.logger, requestID)

	if r.Method != http.MethodGet {
		rw.WriteError(http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
			"Method not allowed", "Only GET is supported")
		return
	}

	rw.WriteJSON(http.StatusOK, APIInfoResponse{
		Name:        "elevatorsim",
		Version:     "v1",
		Description: "Elevator simulation core: world state, statistics and live updates",
		Endpoints: map[string]string{
			"GET /v1":           "API information",
			"GET /v1/state":     "Current world snapshot (floors, elevators, passengers, stats)",
			"GET /v1/stats":     "Current challenge statistics",
			"GET /health":       "Liveness probe",
			"GET /health/live":  "Liveness probe",
			"GET /health/ready": "Readiness probe",
			"GET /metrics":      "Prometheus metrics",
			"WS /ws/state":      "Live state_changed snapshot stream",
		},
	})
}

// StateHandler answers GET /v1/state with a point-in-time world
// snapshot, the same schema /ws/state streams.
func (h *Handlers) StateHandler(w http.ResponseWriter, r *http.Request) {
	requestID := logging.RequestID(r.Context())
	rw := NewResponseWriter(w, h.logger, requestID)

	if r.Method != http.MethodGet {
		rw.WriteError(http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
			"Method not allowed", "Only GET is supported")
		return
	}

	rw.WriteJSON(http.StatusOK, h.state.GetState())
}

// StatsHandler answers GET /v1/stats with the current Stats snapshot.
func (h *Handlers) StatsHandler(w http.ResponseWriter, r *http.Request) {
	requestID := logging.RequestID(r.Context())
	rw := NewResponseWriter(w, h.logger, requestID)

	if r.Method != http.MethodGet {
		rw.WriteError(http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
			"Method not allowed", "Only GET is supported")
		return
	}

	h.logger.InfoContext(r.Context(), "stats request processed",
		slog.String("request_id", requestID),
		slog.String("component", constants.ComponentHTTPHandler))

	rw.WriteJSON(http.StatusOK, h.state.GetStats())
}

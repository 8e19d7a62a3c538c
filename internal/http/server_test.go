package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dannycoates/elevatorsim/internal/eventbus"
	"github.com/dannycoates/elevatorsim/internal/infra/config"
)

type fakeBackendStatus struct {
	ended bool
}

func (f *fakeBackendStatus) IsChallengeEnded() bool { return f.ended }

func buildServerTestConfig() *config.Config {
	return &config.Config{
		Port:               8089,
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		IdleTimeout:        5 * time.Second,
		ShutdownTimeout:    time.Second,
		RateLimitRPM:       1000,
		CORSAllowedOrigins: "*",
		MetricsEnabled:     true,
		WebSocketEnabled:   true,
	}
}

func setupTestServer() *Server {
	cfg := buildServerTestConfig()
	provider := &fakeStateProvider{}
	bus := eventbus.New()
	return NewServer(cfg, provider, bus, &fakeBackendStatus{}, slog.Default())
}

func TestNewServer_RoutesRespond(t *testing.T) {
	server := setupTestServer()
	handler := server.Handler()

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/v1", http.StatusOK},
		{"/v1/state", http.StatusOK},
		{"/v1/stats", http.StatusOK},
		{"/health", http.StatusOK},
		{"/health/live", http.StatusOK},
		{"/health/ready", http.StatusOK},
		{"/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)

			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestNewServer_ReadinessReflectsChallengeEnded(t *testing.T) {
	cfg := buildServerTestConfig()
	provider := &fakeStateProvider{}
	bus := eventbus.New()
	backend := &fakeBackendStatus{ended: false}
	server := NewServer(cfg, provider, bus, backend, slog.Default())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	server.Handler().ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "healthy", result["status"])
}

func TestNewServer_MetricsDisabled(t *testing.T) {
	cfg := buildServerTestConfig()
	cfg.MetricsEnabled = false
	provider := &fakeStateProvider{}
	bus := eventbus.New()
	server := NewServer(cfg, provider, bus, &fakeBackendStatus{}, slog.Default())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	server.Handler().ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_StartAndShutdown(t *testing.T) {
	server := setupTestServer()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Give the listener a moment to bind before shutting down.
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, server.Shutdown())

	err := <-errCh
	assert.ErrorIs(t, err, http.ErrServerClosed)
}

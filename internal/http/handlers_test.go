package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dannycoates/elevatorsim/internal/domain"
	"github.com/dannycoates/elevatorsim/internal/eventbus"
)

type fakeStateProvider struct {
	state eventbus.StateChangedPayload
	stats domain.Stats
}

func (f *fakeStateProvider) GetState() eventbus.StateChangedPayload { return f.state }
func (f *fakeStateProvider) GetStats() domain.Stats                 { return f.stats }

func newTestHandlers() (*Handlers, *fakeStateProvider) {
	provider := &fakeStateProvider{
		stats: domain.Stats{TransportedCount: 3, MoveCount: 10, ElapsedTime: 12.5},
	}
	return NewHandlers(provider, slog.Default()), provider
}

func TestHandlers_APIInfoHandler(t *testing.T) {
	h, _ := newTestHandlers()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v1", nil)

	h.APIInfoHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
}

func TestHandlers_APIInfoHandler_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandlers()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1", nil)

	h.APIInfoHandler(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandlers_StateHandler(t *testing.T) {
	h, provider := newTestHandlers()
	provider.state = eventbus.StateChangedPayload{}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v1/state", nil)

	h.StateHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotNil(t, body.Data)
}

func TestHandlers_StatsHandler(t *testing.T) {
	h, provider := newTestHandlers()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)

	h.StatsHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data domain.Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, provider.stats.TransportedCount, body.Data.TransportedCount)
	assert.Equal(t, provider.stats.MoveCount, body.Data.MoveCount)
}

func TestHandlers_StatsHandler_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandlers()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/v1/stats", nil)

	h.StatsHandler(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dannycoates/elevatorsim/internal/eventbus"
	"github.com/dannycoates/elevatorsim/internal/infra/logging"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var stateUpgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
		http.Error(w, reason.Error(), status)
	},
}

// stateStreamHandler upgrades a connection to WebSocket and streams
// every state_changed event published on bus until the connection
// closes, with a ping/pong keep-alive. Delivery is event-driven rather
// than poll-driven: the backend already publishes state_changed once
// per tick, so there is no separate status ticker to maintain.
type stateStreamHandler struct {
	bus         *eventbus.Bus
	initial     func() eventbus.StateChangedPayload
	logger      *slog.Logger
	connections map[*websocket.Conn]context.CancelFunc
	mu          sync.Mutex
}

func newStateStreamHandler(bus *eventbus.Bus, initial func() eventbus.StateChangedPayload, logger *slog.Logger) *stateStreamHandler {
	return &stateStreamHandler{
		bus:         bus,
		initial:     initial,
		logger:      logger,
		connections: make(map[*websocket.Conn]context.CancelFunc),
	}
}

func (h *stateStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithNewCorrelation(r.Context())

	conn, err := stateUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	connCtx, cancel := context.WithCancel(r.Context())
	h.addConnection(conn, cancel)
	defer h.removeConnection(conn)

	h.logger.InfoContext(ctx, "websocket connection established")

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	writeMu := &sync.Mutex{}
	write := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
			return err
		}
		return conn.WriteJSON(v)
	}

	if err := write(h.initial()); err != nil {
		h.logger.ErrorContext(ctx, "failed to send initial state", slog.String("error", err.Error()))
		return
	}

	updates := make(chan eventbus.StateChangedPayload, 1)
	h.bus.Subscribe(connCtx, eventbus.StateChanged, func(payload any) {
		snapshot, ok := payload.(eventbus.StateChangedPayload)
		if !ok {
			return
		}
		select {
		case updates <- snapshot:
		default:
			// a slow client drops intermediate frames rather than
			// blocking the backend's own tick loop.
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(wsPingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-done:
			return
		case <-connCtx.Done():
			writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutdown"), time.Now().Add(wsWriteWait))
			writeMu.Unlock()
			return
		case <-pingTicker.C:
			writeMu.Lock()
			err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err == nil {
				err = conn.WriteMessage(websocket.PingMessage, nil)
			}
			writeMu.Unlock()
			if err != nil {
				return
			}
		case snapshot := <-updates:
			if err := write(snapshot); err != nil {
				h.logger.ErrorContext(ctx, "failed to send state update", slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (h *stateStreamHandler) addConnection(conn *websocket.Conn, cancel context.CancelFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn] = cancel
}

func (h *stateStreamHandler) removeConnection(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cancel, ok := h.connections[conn]; ok {
		cancel()
		delete(h.connections, conn)
	}
}

// closeAll cancels every live connection's context, used on server
// shutdown to stop outstanding stream goroutines.
func (h *stateStreamHandler) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, cancel := range h.connections {
		cancel()
		delete(h.connections, conn)
	}
}

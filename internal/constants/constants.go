// Package constants centralizes magic strings and default values shared
// across the ambient stack (config, logging, HTTP) so they are not
// duplicated or allowed to drift between packages.
package constants

import "time"

// Server and simulation defaults.
const (
	DefaultPort          = 6660
	DefaultLogLevel      = "INFO"
	DefaultFloorCount    = 10
	DefaultElevatorCount = 2

	DefaultSpawnRatePerSec   = 0.5
	DefaultSpeedFloorsPerSec = 2.6

	// StatusUpdateInterval is a one-second status cadence. The /ws/state
	// feed does not use it: it pushes a snapshot on every state_changed
	// event rather than on a timer.
	StatusUpdateInterval = 1 * time.Second
)

// HTTP content types.
const (
	ContentTypeJSON      = "application/json"
	ContentTypeTextPlain = "text/plain"
)

// Component names used as the "component" slog attribute throughout the
// ambient stack.
const (
	ComponentHTTPServer  = "http-server"
	ComponentHTTPHandler = "http_handler"
	ComponentBackend     = "backend"
	ComponentFrameLoop   = "frame-loop"
	ComponentBridge      = "controller-bridge"
	ComponentWebSocket   = "websocket-server"
)

// Metrics namespace shared by every Prometheus collector in the metrics package.
const MetricsNamespace = "elevatorsim"

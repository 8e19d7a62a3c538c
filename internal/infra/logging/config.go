// Package logging configures the process-wide structured logger the
// simulation emits through, and carries the request/correlation IDs the
// HTTP surface attaches to every log line.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// levelNames maps the LOG_LEVEL values Setup accepts, case-insensitive.
var levelNames = map[string]slog.Level{
	"DEBUG":   slog.LevelDebug,
	"INFO":    slog.LevelInfo,
	"WARN":    slog.LevelWarn,
	"WARNING": slog.LevelWarn,
	"ERROR":   slog.LevelError,
}

// ParseLevel resolves a level name to its slog.Level. Unknown names
// fall back to INFO rather than failing, so a typo in LOG_LEVEL never
// leaves the process without logs.
func ParseLevel(name string) slog.Level {
	if level, ok := levelNames[strings.ToUpper(name)]; ok {
		return level
	}
	return slog.LevelInfo
}

// Setup installs the process-wide logger: JSON lines on stdout at the
// given level, with the default slog keys renamed to the
// timestamp/level/message triple log pipelines expect. It returns the
// logger so callers can derive component loggers without going back
// through slog.Default.
func Setup(level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: renameDefaultKeys,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func renameDefaultKeys(groups []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.LevelKey:
		a.Key = "level"
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// ComponentLogger scopes the default logger to one component, the
// attribute every package in this module logs under.
func ComponentLogger(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}

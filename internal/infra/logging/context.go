package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ctxKey keeps the request/correlation values private to this package;
// callers go through the accessors below.
type ctxKey int

const (
	requestIDKey ctxKey = iota
	correlationIDKey
)

// NewID returns a random 16-hex-character identifier for request and
// correlation tracking on the HTTP surface.
func NewID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// random source failure should never happen; a timestamp ID
		// keeps requests distinguishable if it somehow does.
		return fmt.Sprintf("t-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf[:])
}

// WithRequestID attaches a request ID to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID attached to ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithCorrelationID attaches a correlation ID to ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID returns the correlation ID attached to ctx, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// WithNewCorrelation attaches a freshly generated correlation ID,
// used by long-lived connections that start outside the middleware
// chain's request ID handling.
func WithNewCorrelation(ctx context.Context) context.Context {
	return WithCorrelationID(ctx, NewID())
}

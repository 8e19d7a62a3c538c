package http

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dannycoates/elevatorsim/internal/constants"
	"github.com/dannycoates/elevatorsim/internal/infra/logging"
	"github.com/dannycoates/elevatorsim/metrics"
)

// Middleware represents a middleware function
type Middleware func(http.Handler) http.Handler

// ChainMiddleware chains multiple middleware functions
func ChainMiddleware(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = logging.NewID()
			}

			ctx := logging.WithRequestID(r.Context(), requestID)
			ctx = logging.WithCorrelationID(ctx, requestID)

			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggingMiddleware logs HTTP requests with structured logging and
// records the http_request_duration_seconds / http_errors_total metrics.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			requestID := logging.RequestID(r.Context())
			correlationID := logging.CorrelationID(r.Context())

			wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			metrics.IncHTTPRequestsInFlight()
			defer metrics.DecHTTPRequestsInFlight()

			logger.InfoContext(r.Context(), "HTTP request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("request_id", requestID),
				slog.String("correlation_id", correlationID),
				slog.String("component", constants.ComponentHTTPServer))

			next.ServeHTTP(wrapper, r)

			duration := time.Since(startTime)
			endpoint := sanitizeEndpoint(r.URL.Path)
			statusCode := strconv.Itoa(wrapper.statusCode)

			metrics.ObserveHTTPRequest(r.Method, endpoint, statusCode, duration.Seconds())
			if wrapper.statusCode >= 400 {
				class := "client_error"
				if wrapper.statusCode >= 500 {
					class = "server_error"
				}
				metrics.IncHTTPError(class)
			}

			logLevel := slog.LevelInfo
			if wrapper.statusCode >= 500 {
				logLevel = slog.LevelError
			} else if wrapper.statusCode >= 400 {
				logLevel = slog.LevelWarn
			}

			logger.Log(r.Context(), logLevel, "HTTP request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", wrapper.statusCode),
				slog.Float64("duration_seconds", duration.Seconds()),
				slog.Int64("response_bytes", wrapper.bytesWritten),
				slog.String("request_id", requestID),
				slog.String("correlation_id", correlationID),
				slog.String("component", constants.ComponentHTTPServer))
		})
	}
}

// RecoveryMiddleware handles panics and returns a proper error response
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					requestID := logging.RequestID(r.Context())
					correlationID := logging.CorrelationID(r.Context())

					var errorMsg string
					if e, ok := err.(error); ok {
						errorMsg = e.Error()
					} else {
						errorMsg = fmt.Sprintf("%v", err)
					}

					stack := make([]byte, 4096)
					length := runtime.Stack(stack, false)

					logger.ErrorContext(r.Context(), "HTTP handler panic recovered",
						slog.String("error", errorMsg),
						slog.String("request_id", requestID),
						slog.String("correlation_id", correlationID),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack_trace", string(stack[:length])),
						slog.String("component", constants.ComponentHTTPServer))

					metrics.IncHTTPError("server_error")

					rw := NewResponseWriter(w, logger, requestID)
					rw.WriteError(http.StatusInternalServerError, ErrorCodeInternal,
						"Internal server error", "An unexpected error occurred")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware handles Cross-Origin Resource Sharing for the given
// allowed origins (a single "*" matches every origin).
func CORSMiddleware(allowedOrigins string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware implements simple in-memory rate limiting.
type RateLimitMiddleware struct {
	requests map[string][]time.Time
	mutex    sync.RWMutex
	limit    int
	window   time.Duration
	logger   *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limiting middleware.
func NewRateLimitMiddleware(requestsPerMinute int, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests: make(map[string][]time.Time),
		limit:    requestsPerMinute,
		window:   time.Minute,
		logger:   logger,
	}
}

// Handler returns the middleware handler function.
func (rl *RateLimitMiddleware) Handler() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			if !rl.isAllowed(clientIP) {
				requestID := logging.RequestID(r.Context())
				rl.logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("client_ip", clientIP),
					slog.String("request_id", requestID),
					slog.String("component", constants.ComponentHTTPServer))

				rw := NewResponseWriter(w, rl.logger, requestID)
				rw.WriteError(http.StatusTooManyRequests, ErrorCodeRateLimit,
					"Rate limit exceeded", "Too many requests from this IP address")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimitMiddleware) isAllowed(clientIP string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	requests := rl.requests[clientIP]

	var validRequests []time.Time
	for _, requestTime := range requests {
		if now.Sub(requestTime) < rl.window {
			validRequests = append(validRequests, requestTime)
		}
	}

	if len(validRequests) >= rl.limit {
		return false
	}

	validRequests = append(validRequests, now)
	rl.requests[clientIP] = validRequests
	return true
}

// SecurityHeadersMiddleware adds common security headers.
func SecurityHeadersMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Content-Security-Policy", "default-src 'self'")

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from request headers/remote addr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip := r.RemoteAddr
	if colon := strings.LastIndex(ip, ":"); colon != -1 {
		ip = ip[:colon]
	}
	return ip
}

// responseWriterWrapper wraps http.ResponseWriter to capture response details.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(data []byte) (int, error) {
	w.bytesWritten += int64(len(data))
	return w.ResponseWriter.Write(data)
}

// Hijack implements http.Hijacker for WebSocket upgrades routed through
// the middleware chain.
func (w *responseWriterWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("ResponseWriter does not implement http.Hijacker")
}

// Flush implements http.Flusher.
func (w *responseWriterWrapper) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// sanitizeEndpoint normalizes a request path into a metrics label.
func sanitizeEndpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/"):
		return path
	case path == "/health", path == "/health/live", path == "/health/ready":
		return path
	case path == "/metrics":
		return path
	case path == "/ws/state":
		return path
	default:
		return "/other"
	}
}

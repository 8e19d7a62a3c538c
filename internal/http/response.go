package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dannycoates/elevatorsim/internal/constants"
	"github.com/dannycoates/elevatorsim/internal/domain"
)

// APIResponse is the uniform envelope every JSON endpoint returns:
// either Data on success or Error on failure, never both.
type APIResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// APIError carries a stable machine-readable code alongside the
// human-readable message and optional detail.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error codes used across the v1 API.
const (
	ErrorCodeValidation       = "VALIDATION_ERROR"
	ErrorCodeNotFound         = "NOT_FOUND"
	ErrorCodeConflict         = "CONFLICT"
	ErrorCodeInternal         = "INTERNAL_ERROR"
	ErrorCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrorCodeRateLimit        = "RATE_LIMITED"
)

// ResponseWriter renders APIResponse envelopes onto one
// http.ResponseWriter, tagged with the request's ID.
type ResponseWriter struct {
	w         http.ResponseWriter
	logger    *slog.Logger
	requestID string
}

// NewResponseWriter builds a ResponseWriter for one request.
func NewResponseWriter(w http.ResponseWriter, logger *slog.Logger, requestID string) *ResponseWriter {
	return &ResponseWriter{w: w, logger: logger, requestID: requestID}
}

// WriteJSON writes a response envelope around data with the given
// status. Success follows the status class.
func (rw *ResponseWriter) WriteJSON(statusCode int, data any) {
	rw.write(statusCode, APIResponse{
		Success:   statusCode >= 200 && statusCode < 300,
		Data:      data,
		RequestID: rw.requestID,
		Timestamp: time.Now(),
	})
}

// WriteError writes an error envelope with the given status and code.
func (rw *ResponseWriter) WriteError(statusCode int, code, message, details string) {
	rw.write(statusCode, APIResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: message, Details: details},
		RequestID: rw.requestID,
		Timestamp: time.Now(),
	})
}

// WriteDomainError maps a *domain.DomainError onto the HTTP status and
// code its type implies; anything else is an internal error.
func (rw *ResponseWriter) WriteDomainError(err error) {
	statusCode := http.StatusInternalServerError
	code := ErrorCodeInternal
	message := "Internal server error"

	if domainErr, ok := err.(*domain.DomainError); ok {
		switch domainErr.Type {
		case domain.ErrTypeValidation:
			statusCode = http.StatusBadRequest
			code = ErrorCodeValidation
			message = "Invalid input provided"
		case domain.ErrTypeNotFound:
			statusCode = http.StatusNotFound
			code = ErrorCodeNotFound
			message = "Resource not found"
		case domain.ErrTypeConflict:
			statusCode = http.StatusConflict
			code = ErrorCodeConflict
			message = "Resource conflict"
		}
	}

	rw.WriteError(statusCode, code, message, err.Error())
}

func (rw *ResponseWriter) write(statusCode int, response APIResponse) {
	encoded, err := json.Marshal(response)
	if err != nil {
		// unencodable Data; fall back to a bare internal-error body so
		// the client still gets valid JSON.
		rw.logger.Error("failed to encode response",
			slog.String("error", err.Error()),
			slog.String("request_id", rw.requestID))
		rw.w.Header().Set("Content-Type", constants.ContentTypeJSON)
		rw.w.WriteHeader(http.StatusInternalServerError)
		fallback := `{"success":false,"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`
		if _, writeErr := rw.w.Write([]byte(fallback)); writeErr != nil {
			rw.logger.Error("failed to write fallback response",
				slog.String("error", writeErr.Error()),
				slog.String("request_id", rw.requestID))
		}
		return
	}

	rw.w.Header().Set("Content-Type", constants.ContentTypeJSON)
	rw.w.Header().Set("X-Request-ID", rw.requestID)
	rw.w.WriteHeader(statusCode)
	if _, err := rw.w.Write(encoded); err != nil {
		rw.logger.Error("failed to write response",
			slog.String("error", err.Error()),
			slog.String("request_id", rw.requestID))
	}
}

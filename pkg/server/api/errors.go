package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Mohammed-el-Amine/check-port/pkg/portspec"
	"github.com/Mohammed-el-Amine/check-port/pkg/server/jobs"
)

// Error payloads are part of the public API contract: fields may be added
// but never removed or renamed within v1.

// ErrorResponse represents a standard JSON error response.
//
// Example:
//
//	{
//	  "error": "Bad Request",
//	  "code": "INVALID_PORT_SPEC",
//	  "message": "invalid ports: invalid port spec token \"abc\""
//	}
type ErrorResponse struct {
	Error   string `json:"error"`             // Short error type (e.g., "Not Found")
	Code    string `json:"code,omitempty"`    // Machine-readable error code (e.g., "SCAN_NOT_FOUND")
	Message string `json:"message,omitempty"` // Detailed error message (optional)
}

// Error codes returned by WriteError.
const (
	CodeNotFound      = "SCAN_NOT_FOUND"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeInvalidPorts  = "INVALID_PORT_SPEC"
	CodeQueueFull     = "QUEUE_FULL"
	CodeUnavailable   = "UNAVAILABLE"
	CodeInternalError = "INTERNAL_ERROR"
)

// WriteError writes a standard JSON error response. The status code follows
// the error type:
//   - jobs.NotFoundError → 404 Not Found
//   - portspec.ErrInvalidSpec, jobs.InvalidInputError → 400 Bad Request
//   - jobs.ErrQueueFull, jobs.ErrStopped → 503 Service Unavailable
//   - anything else → 500 Internal Server Error
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, errorCode := classify(err)

	logEvent := log.Error().
		Str("component", "api").
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", statusCode).
		Str("error_code", errorCode).
		Err(err)

	switch {
	case statusCode == http.StatusNotFound:
		logEvent.Msg("Resource not found")
	case statusCode >= 500:
		logEvent.Msg("Internal server error")
	default:
		logEvent.Msg("Client error")
	}

	WriteJSONError(w, statusCode, http.StatusText(statusCode), errorCode, err.Error())
}

func classify(err error) (int, string) {
	var notFoundErr *jobs.NotFoundError
	var invalidInputErr *jobs.InvalidInputError
	switch {
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, portspec.ErrInvalidSpec):
		return http.StatusBadRequest, CodeInvalidPorts
	case errors.As(err, &invalidInputErr):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, jobs.ErrQueueFull):
		return http.StatusServiceUnavailable, CodeQueueFull
	case errors.Is(err, jobs.ErrStopped):
		return http.StatusServiceUnavailable, CodeUnavailable
	}
	return http.StatusInternalServerError, CodeInternalError
}

// WriteJSONError writes a custom JSON error response with a specific status code.
//
// Example:
//
//	WriteJSONError(w, http.StatusBadRequest, "Bad Request", "INVALID_BODY", "request body must be JSON")
func WriteJSONError(w http.ResponseWriter, statusCode int, errorType, errorCode, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   errorType,
		Code:    errorCode,
		Message: message,
	})
}

// WriteJSON writes a JSON response to the client.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode JSON response")
	}
}

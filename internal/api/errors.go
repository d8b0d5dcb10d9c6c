package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/store"
)

// MalformedInputError reports a request field that could not be parsed.
// Its Message is safe to return to clients.
type MalformedInputError struct {
	Field   string
	Message string
}

// NewMalformedInputError creates a MalformedInputError for field.
func NewMalformedInputError(field, message string) *MalformedInputError {
	return &MalformedInputError{Field: field, Message: message}
}

// Error implements the error interface.
func (e *MalformedInputError) Error() string {
	return "malformed " + e.Field + ": " + e.Message
}

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var malformed *MalformedInputError

	switch {
	case err == nil:
		return http.StatusOK

	// Bad request errors
	case errors.As(err, &malformed),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, service.ErrInvalidStatusFilter),
		errors.Is(err, shared.ErrInvalidJSON),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var malformed *MalformedInputError
	var vErr *domain.ValidationError

	switch {
	case errors.As(err, &malformed):
		return malformed.Message

	case errors.As(err, &vErr):
		if len(vErr.Violations) == 0 {
			return "Validation failed"
		}
		return strings.Join(vErr.Violations, "; ")

	case errors.Is(err, service.ErrInvalidStatusFilter):
		return "Invalid status filter. Use 'completed', 'incomplete', or 'all'"

	case errors.Is(err, shared.ErrInvalidJSON):
		return "Invalid request format"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid task data"

	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrVersionConflict):
		return "Task was modified by another request"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the envelope for err. Validation failures carry the
// full violation list; server errors are logged with redaction.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		shared.RespondWithValidationError(w, r, message, vErr.Violations)
		return
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

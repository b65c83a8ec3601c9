// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/condo-admin/backend/internal/service"
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteError writes a JSON error response with the given status code.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}

// WriteServiceError maps a service error onto its HTTP status and error code.
// Unrecognized errors are logged and reported as internal errors without detail.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, ErrNotFound, err.Error())
	case errors.Is(err, service.ErrValidation):
		WriteError(w, http.StatusBadRequest, ErrValidation, err.Error())
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, ErrForbidden, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, ErrUnauthorized, err.Error())
	case errors.Is(err, service.ErrConflict):
		WriteError(w, http.StatusConflict, ErrConflict, err.Error())
	default:
		log.Printf("Internal error on %s %s: %v", r.Method, r.URL.Path, err)
		WriteError(w, http.StatusInternalServerError, ErrInternalError, "An unexpected error occurred")
	}
}

// ErrorRecovery is middleware that recovers from panics and returns a 500 error.
func ErrorRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic recovered: %v\n%s", err, debug.Stack())
				WriteError(w, http.StatusInternalServerError, ErrInternalError, "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Common error codes
const (
	ErrNotFound      = "not_found"
	ErrBadRequest    = "bad_request"
	ErrConflict      = "conflict"
	ErrInternalError = "internal_error"
	ErrValidation    = "validation_error"
	ErrUnauthorized  = "unauthorized"
	ErrForbidden     = "forbidden"
)

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"daylog-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, payload interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// statusForError maps a service failure to an HTTP status code
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidUser),
		errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrAlreadyPosted),
		errors.Is(err, services.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrUploadFailed),
		errors.Is(err, services.ErrMetadataWriteFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// resolveLocation resolves the client's timezone from the tz request value,
// falling back to the server default. The calendar-day boundary is always the
// client's local midnight, not UTC.
func resolveLocation(tz string, fallback *time.Location) *time.Location {
	if tz == "" {
		return fallback
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fallback
	}
	return loc
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"travel-partner-backend/internal/middleware"
	"travel-partner-backend/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// envelope is the JSON body of every API response
type envelope map[string]interface{}

// respondJSON sends {success: true, ...payload}
func respondJSON(w http.ResponseWriter, payload envelope) {
	body := envelope{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, envelope{"success": false, "error": message})
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// statusFor maps a service error category to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrCapacity):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError sends the service's message for known categories and fallback otherwise
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg(fallback)
		respondError(w, fallback, status)
		return
	}
	respondError(w, err.Error(), status)
}

// decodeJSON reads the request body into dst and runs struct validation.
// An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}
	return validate.Struct(dst)
}

// actingUser prefers the identity from a verified token over a client-supplied id
func actingUser(r *http.Request, claimed string) string {
	if userID := middleware.GetUserID(r.Context()); userID != "" {
		return userID
	}
	return claimed
}

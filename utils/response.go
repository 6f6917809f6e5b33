package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"eventure_server/services"
)

// RespondJSON writes v as a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// RespondError maps a service error to its HTTP status class and writes a
// JSON error body. Anything outside the taxonomy is a storage failure.
func RespondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrInvalidTransition):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthenticated):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		log.Printf("Storage failure: %v", err)
	}
	RespondJSON(w, status, map[string]string{"error": err.Error()})
}

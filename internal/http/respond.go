package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"notinha/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

// statusFor maps domain sentinels to HTTP statuses. Anything unrecognized is
// an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrPrecondition):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrInvalidFormat), errors.Is(err, core.ErrNoValidItems):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrServiceOverloaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

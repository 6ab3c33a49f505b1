package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lawrns/foco/board"
)

// errorPayload is the uniform error body.
type errorPayload struct {
	Error string `json:"error"`
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.respond(w, status, errorPayload{Error: err.Error()})
}

// fail writes a store error from a mutation: sentinel errors map to their
// status codes, anything else is a validation failure the caller can fix.
func (s *Server) fail(w http.ResponseWriter, err error) {
	s.respondError(w, storeStatus(err, http.StatusBadRequest), err)
}

// failRead writes a store error from a read path, where inputs were
// already checked and a non-sentinel error means the backend itself
// broke.
func (s *Server) failRead(w http.ResponseWriter, err error) {
	status := storeStatus(err, http.StatusInternalServerError)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.respondError(w, status, err)
}

// storeStatus maps the store's sentinel errors onto HTTP codes: missing
// records are 404, ordering and child conflicts 409, a closed store 503.
// Errors outside the sentinels take the fallback.
func storeStatus(err error, fallback int) int {
	switch {
	case errors.Is(err, board.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrOrderConflict), errors.Is(err, board.ErrHasChildren):
		return http.StatusConflict
	case errors.Is(err, board.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return fallback
}

// decode reads a JSON request body into v. Unknown fields are rejected.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

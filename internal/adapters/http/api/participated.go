// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ParticipatedHandler handles participation probe requests.
type ParticipatedHandler struct {
	deps Dependencies
}

// NewParticipatedHandler creates a new participated handler.
func NewParticipatedHandler(deps Dependencies) *ParticipatedHandler {
	return &ParticipatedHandler{deps: deps}
}

// HandleParticipated handles GET /api/v1/events/fcfs/{id}/participated requests.
// Clients whose admission request timed out use it to learn their outcome
// instead of retrying blind.
func (h *ParticipatedHandler) HandleParticipated(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, errors.New("missing user_id")))
		return
	}

	seen, err := h.deps.HasParticipated(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, participatedResponse{Participated: seen})
}

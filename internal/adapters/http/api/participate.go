// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ParticipateHandler handles admission attempt requests.
type ParticipateHandler struct {
	deps Dependencies
}

// NewParticipateHandler creates a new participate handler.
func NewParticipateHandler(deps Dependencies) *ParticipateHandler {
	return &ParticipateHandler{deps: deps}
}

// HandleParticipate handles POST /api/v1/events/fcfs/{id} requests.
func (h *ParticipateHandler) HandleParticipate(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")

	var req participateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	answerOK, won, err := h.deps.Participate(r.Context(), eventID, req.UserID, req.Answer)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, participateResponse{AnswerResult: answerOK, IsWinner: won})
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// InfoHandler handles event status requests.
type InfoHandler struct {
	deps Dependencies
}

// NewInfoHandler creates a new info handler.
func NewInfoHandler(deps Dependencies) *InfoHandler {
	return &InfoHandler{deps: deps}
}

// HandleInfo handles GET /api/v1/events/fcfs/{id}/info requests.
func (h *InfoHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.deps.GetStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

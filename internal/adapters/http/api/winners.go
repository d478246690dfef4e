// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"
)

// WinnersHandler handles reconciled winner listing requests.
type WinnersHandler struct {
	deps Dependencies
}

// NewWinnersHandler creates a new winners handler.
func NewWinnersHandler(deps Dependencies) *WinnersHandler {
	return &WinnersHandler{deps: deps}
}

// HandleWinners handles GET /api/v1/events/fcfs/{id}/winners requests.
// Winners appear here only after reconciliation has moved them to durable
// storage; a live event returns an empty list.
func (h *WinnersHandler) HandleWinners(w http.ResponseWriter, r *http.Request) {
	records, err := h.deps.ListWinners(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	entries := make([]winnerEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, winnerEntry{
			UserID:      rec.UserID,
			UserName:    rec.UserName,
			Phone:       rec.Phone,
			WinningTime: rec.WinningTime.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

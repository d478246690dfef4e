// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/haeun-oh/rushgate/internal/adapters/repository"
	"github.com/haeun-oh/rushgate/internal/domain/model"
	"github.com/haeun-oh/rushgate/internal/fcfs"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Participate verifies the answer and runs the admission attempt.
	Participate(ctx context.Context, eventID, userID, answer string) (answerOK, won bool, err error)

	// GetStatus returns the event's start time and lifecycle label.
	GetStatus(ctx context.Context, eventID string) (model.StatusInfo, error)

	// HasParticipated reports whether userID already acted in the event.
	HasParticipated(ctx context.Context, eventID, userID string) (bool, error)

	// ListWinners returns the reconciled winners of an event.
	ListWinners(ctx context.Context, eventID string) ([]model.WinningRecord, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	participateHandler  *ParticipateHandler
	infoHandler         *InfoHandler
	participatedHandler *ParticipatedHandler
	winnersHandler      *WinnersHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		participateHandler:  NewParticipateHandler(deps),
		infoHandler:         NewInfoHandler(deps),
		participatedHandler: NewParticipatedHandler(deps),
		winnersHandler:      NewWinnersHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("POST /api/v1/events/fcfs/{id}", MetricsMiddleware(s.participateHandler.HandleParticipate, "participate"))
	mux.HandleFunc("GET /api/v1/events/fcfs/{id}/info", MetricsMiddleware(s.infoHandler.HandleInfo, "info"))
	mux.HandleFunc("GET /api/v1/events/fcfs/{id}/participated", MetricsMiddleware(s.participatedHandler.HandleParticipated, "participated"))
	mux.HandleFunc("GET /api/v1/events/fcfs/{id}/winners", MetricsMiddleware(s.winnersHandler.HandleWinners, "winners"))
}

// participateRequest mirrors the request schema for POST /api/v1/events/fcfs/{id}.
type participateRequest struct {
	UserID string `json:"user_id"`
	Answer string `json:"answer"`
}

func (p participateRequest) validate() error {
	switch {
	case strings.TrimSpace(p.UserID) == "":
		return errors.New("missing user_id")
	case strings.TrimSpace(p.Answer) == "":
		return errors.New("missing answer")
	}
	return nil
}

type participateResponse struct {
	AnswerResult bool `json:"answer_result"`
	IsWinner     bool `json:"is_winner"`
}

type participatedResponse struct {
	Participated bool `json:"participated"`
}

type winnerEntry struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Phone       string `json:"phone"`
	WinningTime string `json:"winning_time"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates the admission error taxonomy to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fcfs.ErrEventNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, fcfs.ErrInvalidEventTime):
		writeError(w, http.StatusBadRequest, "invalid_event_time", err)
	case errors.Is(err, fcfs.ErrAlreadyParticipated):
		writeError(w, http.StatusConflict, "already_participated", err)
	case errors.Is(err, fcfs.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

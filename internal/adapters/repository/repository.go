// Package repository defines durable storage contracts for event state.
//
// The coordination store (internal/adapters/kv) holds only transient admission
// records; the repositories below are the durable source of truth the records
// are derived from, and the destination winners are reconciled into.
package repository

import (
	"context"
	"time"

	"github.com/haeun-oh/rushgate/internal/domain/model"
)

// EventRepository reads durable FCFS event definitions.
type EventRepository interface {
	// FindUpcoming returns every event whose start time falls in [from, to).
	FindUpcoming(ctx context.Context, from, to time.Time) ([]model.EventDefinition, error)

	// FindBySeq returns the event with the given internal sequence number.
	// Returns ErrNotFound if the event is unknown.
	FindBySeq(ctx context.Context, seq int64) (model.EventDefinition, error)

	// FindByExternalID returns the event behind the given external identifier.
	// Returns ErrNotFound if the event is unknown.
	FindByExternalID(ctx context.Context, externalID string) (model.EventDefinition, error)
}

// UserRepository resolves participant identifiers to durable identities.
type UserRepository interface {
	// ResolveMany returns the identities behind the given user ids. Unknown
	// ids are silently absent from the result.
	ResolveMany(ctx context.Context, userIDs []string) ([]model.ParticipantIdentity, error)
}

// WinningRepository persists and reads reconciled winning records.
type WinningRepository interface {
	// SaveAll persists the given winning records. Idempotent: re-saving a
	// (event, user) pair that already exists is a no-op, so a reconciliation
	// retry cannot double-insert.
	SaveAll(ctx context.Context, records []model.WinningRecord) error

	// ListByEvent returns every winning record of one event, ordered by
	// winning time.
	ListByEvent(ctx context.Context, eventSeq int64) ([]model.WinningRecord, error)
}

// Package model contains domain models passed between layers.
package model

import "time"

// EventDefinition is the durable description of an FCFS event. The coordination
// store's admission record is a derived, time-bounded cache of it.
type EventDefinition struct {
	Seq        int64     // internal sequence number, primary key
	ExternalID string    // externally visible event identifier
	Name       string    // display name
	StartTime  time.Time // instant the admission window opens
	EndTime    time.Time // advertised end of the event
	Capacity   int64     // total number of prizes
	PrizeInfo  string    // prize description shown to winners
}

// ParticipantIdentity is the durable identity behind a participant id.
type ParticipantIdentity struct {
	Seq      int64  // internal sequence number, primary key
	UserID   string // participant identifier used on the wire
	UserName string
	Phone    string
}

// Winner is a transient admission result read back from the coordination
// store: a participant id plus the arrival timestamp assigned by the atomic
// admission step.
type Winner struct {
	UserID    string
	ArrivedAt time.Time
}

// WinningRecord is the durable record of one winner of one event. Created once
// during reconciliation, never mutated.
type WinningRecord struct {
	EventSeq    int64
	UserSeq     int64
	UserID      string
	UserName    string
	Phone       string
	WinningTime time.Time
}

// Status labels for the event lifecycle projection.
const (
	StatusWaiting   = "waiting"
	StatusCountdown = "countdown"
	StatusProgress  = "progress"
)

// StatusInfo is the client-facing lifecycle projection for one event.
type StatusInfo struct {
	StartTime time.Time `json:"event_start_time"`
	Status    string    `json:"event_status"`
}

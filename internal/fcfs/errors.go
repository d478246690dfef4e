package fcfs

import (
	"errors"

	"github.com/haeun-oh/rushgate/internal/adapters/kv"
)

// Sentinel kinds for admission errors. Callers classify with errors.Is.
var (
	// ErrEventNotFound reports an unknown external id or an event that has not
	// been materialized (or was already reconciled and purged).
	ErrEventNotFound = errors.New("fcfs event not found")

	// ErrInvalidEventTime reports an admission or answer attempt before the
	// event's start time.
	ErrInvalidEventTime = errors.New("invalid event time")

	// ErrAlreadyParticipated reports a repeated attempt by the same
	// participant. Distinct from "not a winner" so clients do not misreport a
	// retry as a fresh loss.
	ErrAlreadyParticipated = errors.New("participant already acted")

	// ErrUnavailable reports a coordination store failure. Transient; the
	// caller may retry. No partial admission state is left behind.
	ErrUnavailable = kv.ErrUnavailable
)

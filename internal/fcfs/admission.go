// Package fcfs implements bounded-capacity admission control for
// first-come-first-served events.
//
// The package holds the four cooperating components of the admission
// subsystem: the Materializer loads upcoming event definitions into the
// coordination store, the Engine decides admissions on the hot path, the
// StatusProjector exposes the lifecycle label clients poll, and the
// Reconciler migrates winners back into durable storage after the window
// closes. Contention between concurrent admission attempts is resolved
// entirely by the store-side atomic step, not by application locks.
package fcfs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/haeun-oh/rushgate/internal/adapters/kv"
	"github.com/haeun-oh/rushgate/pkg/logger"
	"github.com/haeun-oh/rushgate/pkg/metrics"
)

// Engine is the admission decision engine: the hot path that decides which
// participants of an event become winners.
type Engine struct {
	store kv.Store
	log   logger.Logger
	now   func() time.Time
}

// EngineOption applies a configuration option to the Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets a custom logger for the engine.
func WithEngineLogger(log logger.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithEngineClock overrides the engine's time source.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an Engine bound to the given coordination store.
func NewEngine(store kv.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get().Named("admission")
	}
	return e
}

// resolveSeq maps an external event id to the internal sequence number. A
// missing mapping means the event was never materialized or already purged.
func resolveSeq(ctx context.Context, store kv.Store, externalEventID string) (string, error) {
	seq, err := store.Get(ctx, eventIDKey(externalEventID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrEventNotFound, externalEventID)
	}
	if err != nil {
		return "", err
	}
	return seq, nil
}

// readStartTime loads and parses the event's start time. The materializer
// writes the record before the mapping, so a resolvable event whose start key
// is gone means the record was purged under us.
func readStartTime(ctx context.Context, store kv.Store, seq string) (time.Time, error) {
	raw, err := store.Get(ctx, startKey(seq))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return time.Time{}, fmt.Errorf("%w: record for seq %s is gone", ErrEventNotFound, seq)
	}
	if err != nil {
		return time.Time{}, err
	}
	start, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: corrupt start time for seq %s: %v", ErrEventNotFound, seq, err)
	}
	return start, nil
}

// AttemptAdmission decides whether participantID wins a prize of the event
// behind externalEventID. Exactly one store-side atomic step bounds the
// winner set to the event's capacity; everything before it is fail-fast
// validation and everything after it is idempotent bookkeeping.
func (e *Engine) AttemptAdmission(ctx context.Context, externalEventID, participantID string) (bool, error) {
	started := time.Now()
	won, err := e.attemptAdmission(ctx, externalEventID, participantID)
	metrics.RecordAdmissionLatency(float64(time.Since(started).Microseconds()) / 1e3)

	switch {
	case err == nil && won:
		metrics.RecordAdmissionAttempt("won")
	case err == nil:
		metrics.RecordAdmissionAttempt("lost")
	case errors.Is(err, ErrAlreadyParticipated):
		metrics.RecordAdmissionAttempt("conflict")
	case errors.Is(err, ErrEventNotFound):
		metrics.RecordAdmissionAttempt("not_found")
	case errors.Is(err, ErrInvalidEventTime):
		metrics.RecordAdmissionAttempt("too_early")
	default:
		metrics.RecordAdmissionAttempt("error")
		metrics.RecordErrorByComponent("admission", "unavailable")
	}
	return won, err
}

func (e *Engine) attemptAdmission(ctx context.Context, externalEventID, participantID string) (bool, error) {
	seq, err := resolveSeq(ctx, e.store, externalEventID)
	if err != nil {
		return false, err
	}

	// Ended fast path: once the event sells out this is the steady-state
	// outcome for all remaining traffic, so it stays cheap (one read, one
	// idempotent set insert).
	ended, err := e.store.Get(ctx, endedKey(seq))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return false, fmt.Errorf("%w: record for seq %s is gone", ErrEventNotFound, seq)
	}
	if err != nil {
		return false, err
	}
	if ended == endedTrue {
		if err := e.store.SAdd(ctx, participantsKey(seq), participantID); err != nil {
			return false, err
		}
		return false, nil
	}

	// Conflict check: a participant acts at most once. Reported distinctly
	// from "not a winner" so a transport-level retry is recognizable.
	participated, err := e.store.SIsMember(ctx, participantsKey(seq), participantID)
	if err != nil {
		return false, err
	}
	if participated {
		return false, fmt.Errorf("%w: %s in event %s", ErrAlreadyParticipated, participantID, externalEventID)
	}

	start, err := readStartTime(ctx, e.store, seq)
	if err != nil {
		return false, err
	}
	if e.now().Before(start) {
		return false, fmt.Errorf("%w: event %s starts at %s", ErrInvalidEventTime, externalEventID, start.Format(time.RFC3339))
	}

	rawCapacity, err := e.store.Get(ctx, capacityKey(seq))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return false, fmt.Errorf("%w: record for seq %s is gone", ErrEventNotFound, seq)
		}
		return false, err
	}
	capacity, err := strconv.ParseInt(rawCapacity, 10, 64)
	if err != nil {
		return false, fmt.Errorf("%w: corrupt capacity for seq %s: %v", ErrEventNotFound, seq, err)
	}

	// The atomic admission step. The arrival timestamp assigned here is the
	// event's total order; request-received time at the edge is not.
	score := e.now().UnixMilli()
	rank, err := e.store.AdmitFirstN(ctx, winnersKey(seq), capacity, score, participantID)
	if err != nil {
		return false, err
	}

	if err := e.store.SAdd(ctx, participantsKey(seq), participantID); err != nil {
		return false, err
	}

	if rank <= 0 {
		// This call observed fullness; flip the ended flag. Setting it twice
		// under a racing loser is harmless.
		if err := e.store.Set(ctx, endedKey(seq), endedTrue, 0); err != nil {
			return false, err
		}
		metrics.RecordEventSellout()
		e.log.Info(ctx, "event sold out",
			logger.String("eventId", externalEventID),
			logger.String("seq", seq),
		)
		return false, nil
	}

	metrics.RecordAdmissionWinner()
	e.log.Info(ctx, "participant admitted",
		logger.String("eventId", externalEventID),
		logger.String("userId", participantID),
		logger.Int64("rank", rank),
		logger.Int64("score", score),
	)
	return true, nil
}

// CheckAnswer reports whether submitted matches the event's answer token.
// Pure check: it never mutates admission state, and callers are expected,
// but not required, to invoke it before AttemptAdmission.
func (e *Engine) CheckAnswer(ctx context.Context, externalEventID, submitted string) (bool, error) {
	seq, err := resolveSeq(ctx, e.store, externalEventID)
	if err != nil {
		return false, err
	}

	start, err := readStartTime(ctx, e.store, seq)
	if err != nil {
		return false, err
	}
	if e.now().Before(start) {
		return false, fmt.Errorf("%w: event %s starts at %s", ErrInvalidEventTime, externalEventID, start.Format(time.RFC3339))
	}

	answer, err := e.store.Get(ctx, answerKey(seq))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return false, fmt.Errorf("%w: record for seq %s is gone", ErrEventNotFound, seq)
	}
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(answer) == strings.TrimSpace(submitted), nil
}

// HasParticipated reports whether participantID has completed an admission
// attempt for the event. Lets clients that timed out mid-request learn their
// outcome instead of guessing.
func (e *Engine) HasParticipated(ctx context.Context, externalEventID, participantID string) (bool, error) {
	seq, err := resolveSeq(ctx, e.store, externalEventID)
	if err != nil {
		return false, err
	}
	return e.store.SIsMember(ctx, participantsKey(seq), participantID)
}

package fcfs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/haeun-oh/rushgate/internal/adapters/kv"
	"github.com/haeun-oh/rushgate/internal/adapters/repository"
	"github.com/haeun-oh/rushgate/internal/domain/model"
	"github.com/haeun-oh/rushgate/internal/domain/token"
	"github.com/haeun-oh/rushgate/pkg/logger"
	"github.com/haeun-oh/rushgate/pkg/metrics"
)

// Materializer loads upcoming event definitions from durable storage into the
// coordination store so the admission hot path never touches the database.
type Materializer struct {
	store  kv.Store
	events repository.EventRepository
	tokens *token.Generator
	window time.Duration
	log    logger.Logger
	now    func() time.Time
}

// MaterializerOption applies a configuration option to the Materializer.
type MaterializerOption func(*Materializer)

// WithMaterializeWindow sets how far ahead of now events are materialized.
func WithMaterializeWindow(d time.Duration) MaterializerOption {
	return func(m *Materializer) {
		if d > 0 {
			m.window = d
		}
	}
}

// WithMaterializerLogger sets a custom logger for the materializer.
func WithMaterializerLogger(log logger.Logger) MaterializerOption {
	return func(m *Materializer) {
		if log != nil {
			m.log = log
		}
	}
}

// WithMaterializerClock overrides the materializer's time source.
func WithMaterializerClock(now func() time.Time) MaterializerOption {
	return func(m *Materializer) {
		if now != nil {
			m.now = now
		}
	}
}

// WithTokenGenerator sets the answer token generator.
func WithTokenGenerator(g *token.Generator) MaterializerOption {
	return func(m *Materializer) {
		if g != nil {
			m.tokens = g
		}
	}
}

// DefaultMaterializeWindow is how far ahead events are loaded when no window
// is configured.
const DefaultMaterializeWindow = 24 * time.Hour

// NewMaterializer creates a Materializer over the given store and repository.
func NewMaterializer(store kv.Store, events repository.EventRepository, opts ...MaterializerOption) *Materializer {
	m := &Materializer{
		store:  store,
		events: events,
		window: DefaultMaterializeWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tokens == nil {
		m.tokens = token.NewGenerator()
	}
	if m.log == nil {
		m.log = logger.Get().Named("materializer")
	}
	return m
}

// MaterializeUpcoming loads every event starting in [now, now+window) into
// the coordination store. Idempotent: an event whose mapping key already
// exists is skipped, so re-running after a partial failure only fills the
// gaps. Per-event failures are collected; the batch continues past them.
func (m *Materializer) MaterializeUpcoming(ctx context.Context) error {
	from := m.now()
	defs, err := m.events.FindUpcoming(ctx, from, from.Add(m.window))
	if err != nil {
		metrics.RecordErrorByComponent("materializer", "repository")
		return fmt.Errorf("list upcoming events: %w", err)
	}

	var errs error
	for _, def := range defs {
		if err := m.materializeOne(ctx, def); err != nil {
			metrics.RecordErrorByComponent("materializer", "store")
			m.log.Error(ctx, "materialize event failed",
				logger.String("eventId", def.ExternalID),
				logger.Error(err),
			)
			errs = errors.Join(errs, fmt.Errorf("event %s: %w", def.ExternalID, err))
		}
	}
	return errs
}

// materializeOne writes one event's admission record. The record keys are
// written in one atomic group and the mapping key is written last, so a
// resolvable mapping always points at a complete record.
func (m *Materializer) materializeOne(ctx context.Context, def model.EventDefinition) error {
	exists, err := m.store.Exists(ctx, eventIDKey(def.ExternalID))
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	answer, err := m.tokens.Generate()
	if err != nil {
		return err
	}

	seq := strconv.FormatInt(def.Seq, 10)
	record := map[string]string{
		capacityKey(seq): strconv.FormatInt(def.Capacity, 10),
		startKey(seq):    def.StartTime.Format(time.RFC3339Nano),
		answerKey(seq):   answer,
		endedKey(seq):    endedFalse,
	}
	if err := m.store.SetMulti(ctx, record); err != nil {
		return err
	}
	if err := m.store.Set(ctx, eventIDKey(def.ExternalID), seq, 0); err != nil {
		return err
	}

	metrics.RecordEventMaterialized()
	m.log.Info(ctx, "event materialized",
		logger.String("eventId", def.ExternalID),
		logger.String("seq", seq),
		logger.Int64("capacity", def.Capacity),
		logger.Time("start", def.StartTime),
	)
	return nil
}

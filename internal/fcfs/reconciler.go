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
	"github.com/haeun-oh/rushgate/pkg/logger"
	"github.com/haeun-oh/rushgate/pkg/metrics"
)

// DefaultReconcileMargin is the grace period past the progress horizon before
// an event's record is considered safe to reconcile.
const DefaultReconcileMargin = 10 * time.Minute

// Reconciler migrates finished events' winners out of the coordination store
// into durable storage, then purges the transient record.
type Reconciler struct {
	store    kv.Store
	events   repository.EventRepository
	users    repository.UserRepository
	winnings repository.WinningRepository
	progress time.Duration
	margin   time.Duration
	log      logger.Logger
	now      func() time.Time
}

// ReconcilerOption applies a configuration option to the Reconciler.
type ReconcilerOption func(*Reconciler)

// WithReconcileProgressHorizon sets the progress horizon used to decide
// whether an event's admission window has closed. It should match the
// StatusProjector's horizon.
func WithReconcileProgressHorizon(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d > 0 {
			r.progress = d
		}
	}
}

// WithReconcileMargin sets the grace period past the progress horizon.
func WithReconcileMargin(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d >= 0 {
			r.margin = d
		}
	}
}

// WithReconcilerLogger sets a custom logger for the reconciler.
func WithReconcilerLogger(log logger.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

// WithReconcilerClock overrides the reconciler's time source.
func WithReconcilerClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReconciler creates a Reconciler over the given store and repositories.
func NewReconciler(store kv.Store, events repository.EventRepository, users repository.UserRepository, winnings repository.WinningRepository, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:    store,
		events:   events,
		users:    users,
		winnings: winnings,
		progress: DefaultProgressHorizon,
		margin:   DefaultReconcileMargin,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("reconciler")
	}
	return r
}

// Reconcile finds every materialized event whose admission window closed at
// least margin ago, persists its winners, and purges its transient record.
// Persist happens strictly before purge: a failure between the two leaves the
// record in place for the next run, and SaveAll's idempotence makes the retry
// safe. Per-event failures are collected; the sweep continues past them.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	keys, err := r.store.ScanKeys(ctx, startKeyPattern)
	if err != nil {
		metrics.RecordErrorByComponent("reconciler", "store")
		return fmt.Errorf("scan admission records: %w", err)
	}

	var errs error
	for _, key := range keys {
		seq, ok := seqFromStartKey(key)
		if !ok {
			continue
		}
		closed, err := r.windowClosed(ctx, seq)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("seq %s: %w", seq, err))
			continue
		}
		if !closed {
			continue
		}
		if err := r.reconcileEvent(ctx, seq); err != nil {
			metrics.RecordReconcileFailure()
			r.log.Error(ctx, "reconcile event failed",
				logger.String("seq", seq),
				logger.Error(err),
			)
			errs = errors.Join(errs, fmt.Errorf("seq %s: %w", seq, err))
		}
	}
	return errs
}

// windowClosed reports whether the event's admission window closed more than
// margin ago.
func (r *Reconciler) windowClosed(ctx context.Context, seq string) (bool, error) {
	start, err := readStartTime(ctx, r.store, seq)
	if err != nil {
		return false, err
	}
	return r.now().After(start.Add(r.progress).Add(r.margin)), nil
}

// reconcileEvent persists one event's winners and purges its record.
func (r *Reconciler) reconcileEvent(ctx context.Context, seq string) error {
	eventSeq, err := strconv.ParseInt(seq, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed seq: %w", err)
	}

	def, err := r.events.FindBySeq(ctx, eventSeq)
	if err != nil {
		return fmt.Errorf("load event definition: %w", err)
	}

	winners, err := r.store.ZRangeWithScores(ctx, winnersKey(seq))
	if err != nil {
		return err
	}

	if len(winners) > 0 {
		records, err := r.buildRecords(ctx, eventSeq, winners)
		if err != nil {
			return err
		}
		if err := r.winnings.SaveAll(ctx, records); err != nil {
			return fmt.Errorf("persist winners: %w", err)
		}
		metrics.RecordWinnersPersisted(len(records))
	}

	purge := append(recordKeys(seq), eventIDKey(def.ExternalID))
	if err := r.store.Del(ctx, purge...); err != nil {
		return fmt.Errorf("purge record: %w", err)
	}

	metrics.RecordEventReconciled()
	r.log.Info(ctx, "event reconciled",
		logger.String("eventId", def.ExternalID),
		logger.String("seq", seq),
		logger.Int("winners", len(winners)),
	)
	return nil
}

// buildRecords joins the winner set with durable identities. A winner whose
// id resolves to no identity cannot be keyed in durable storage and is
// dropped with a warning.
func (r *Reconciler) buildRecords(ctx context.Context, eventSeq int64, winners []kv.Member) ([]model.WinningRecord, error) {
	ids := make([]string, 0, len(winners))
	for _, w := range winners {
		ids = append(ids, w.ID)
	}
	identities, err := r.users.ResolveMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve winner identities: %w", err)
	}
	byID := make(map[string]model.ParticipantIdentity, len(identities))
	for _, id := range identities {
		byID[id.UserID] = id
	}

	records := make([]model.WinningRecord, 0, len(winners))
	for _, w := range winners {
		identity, ok := byID[w.ID]
		if !ok {
			r.log.Warn(ctx, "winner has no durable identity, dropping",
				logger.Int64("eventSeq", eventSeq),
				logger.String("userId", w.ID),
			)
			continue
		}
		records = append(records, model.WinningRecord{
			EventSeq:    eventSeq,
			UserSeq:     identity.Seq,
			UserID:      w.ID,
			UserName:    identity.UserName,
			Phone:       identity.Phone,
			WinningTime: time.UnixMilli(int64(w.Score)).UTC(),
		})
	}
	return records, nil
}

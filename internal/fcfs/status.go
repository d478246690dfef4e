package fcfs

import (
	"context"
	"time"

	"github.com/haeun-oh/rushgate/internal/adapters/kv"
	"github.com/haeun-oh/rushgate/internal/domain/model"
)

// Default lifecycle horizons. Product constants; override per deployment.
const (
	DefaultCountdownHorizon = 3 * time.Hour
	DefaultProgressHorizon  = 7 * time.Hour
)

// StatusProjector computes the lifecycle label clients poll to synchronize
// their admission attempts with the activation instant. Read-only; safe to
// poll at arbitrary frequency alongside the Engine.
type StatusProjector struct {
	store     kv.Store
	countdown time.Duration
	progress  time.Duration
	now       func() time.Time
}

// StatusOption applies a configuration option to the StatusProjector.
type StatusOption func(*StatusProjector)

// WithCountdownHorizon sets how long before start time the label flips to
// countdown.
func WithCountdownHorizon(d time.Duration) StatusOption {
	return func(p *StatusProjector) {
		if d > 0 {
			p.countdown = d
		}
	}
}

// WithProgressHorizon sets how long after start time the label stays at
// progress.
func WithProgressHorizon(d time.Duration) StatusOption {
	return func(p *StatusProjector) {
		if d > 0 {
			p.progress = d
		}
	}
}

// WithStatusClock overrides the projector's time source.
func WithStatusClock(now func() time.Time) StatusOption {
	return func(p *StatusProjector) {
		if now != nil {
			p.now = now
		}
	}
}

// NewStatusProjector creates a StatusProjector with default horizons.
func NewStatusProjector(store kv.Store, opts ...StatusOption) *StatusProjector {
	p := &StatusProjector{
		store:     store,
		countdown: DefaultCountdownHorizon,
		progress:  DefaultProgressHorizon,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetStatus returns the event's start time and lifecycle label:
//
//	countdown  start - countdownHorizon < now < start
//	progress   start <= now < start + progressHorizon
//	waiting    otherwise
func (p *StatusProjector) GetStatus(ctx context.Context, externalEventID string) (model.StatusInfo, error) {
	seq, err := resolveSeq(ctx, p.store, externalEventID)
	if err != nil {
		return model.StatusInfo{}, err
	}
	start, err := readStartTime(ctx, p.store, seq)
	if err != nil {
		return model.StatusInfo{}, err
	}

	now := p.now()
	info := model.StatusInfo{StartTime: start, Status: model.StatusWaiting}
	switch {
	case now.Before(start) && now.Add(p.countdown).After(start):
		info.Status = model.StatusCountdown
	case !now.Before(start) && now.Before(start.Add(p.progress)):
		info.Status = model.StatusProgress
	}
	return info, nil
}

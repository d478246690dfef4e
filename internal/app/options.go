package service

import (
	"time"

	"github.com/haeun-oh/rushgate/internal/adapters/kv"
	"github.com/haeun-oh/rushgate/internal/adapters/repository"
	"github.com/haeun-oh/rushgate/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithRedis configures the coordination store connection.
func WithRedis(addr, password string, db int) Option {
	return func(s *Service) {
		if addr != "" {
			s.redisAddr = addr
		}
		s.redisPassword = password
		s.redisDB = db
	}
}

// WithDBPath locates the sqlite database holding durable event state.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithHorizons sets the status lifecycle horizons.
func WithHorizons(countdown, progress time.Duration) Option {
	return func(s *Service) {
		if countdown > 0 {
			s.countdownHorizon = countdown
		}
		if progress > 0 {
			s.progressHorizon = progress
		}
	}
}

// WithReconcileMargin sets the grace period past the progress horizon before
// winners are migrated to durable storage.
func WithReconcileMargin(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.reconcileMargin = d
		}
	}
}

// WithMaterializeWindow sets how far ahead upcoming events are loaded.
func WithMaterializeWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.materializeWindow = d
		}
	}
}

// WithIntervals paces the materialize and reconcile loops.
func WithIntervals(materialize, reconcile time.Duration) Option {
	return func(s *Service) {
		if materialize > 0 {
			s.materializeInterval = materialize
		}
		if reconcile > 0 {
			s.reconcileInterval = reconcile
		}
	}
}

// WithAnswerPolicy shapes the generated trivia answer tokens.
func WithAnswerPolicy(alphabet string, length int) Option {
	return func(s *Service) {
		if alphabet != "" {
			s.answerAlphabet = alphabet
		}
		if length > 0 {
			s.answerLength = length
		}
	}
}

// WithStore injects a coordination store, bypassing the redis connection.
// Used by tests that run against an in-process store.
func WithStore(store kv.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRepositories injects durable repositories, bypassing sqlite.
func WithRepositories(events repository.EventRepository, users repository.UserRepository, winnings repository.WinningRepository) Option {
	return func(s *Service) {
		if events != nil {
			s.events = events
		}
		if users != nil {
			s.users = users
		}
		if winnings != nil {
			s.winnings = winnings
		}
	}
}

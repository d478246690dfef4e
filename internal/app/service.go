// Package service provides the orchestrating service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/haeun-oh/rushgate/internal/adapters/kv"
	"github.com/haeun-oh/rushgate/internal/adapters/repository"
	"github.com/haeun-oh/rushgate/internal/domain/model"
	"github.com/haeun-oh/rushgate/internal/domain/token"
	"github.com/haeun-oh/rushgate/internal/fcfs"
	"github.com/haeun-oh/rushgate/pkg/logger"
)

// Service owns the admission subsystem: the coordination store, the durable
// repositories, the four core components, and the background schedule loops.
type Service struct {
	mu sync.Mutex

	// Core components
	store        kv.Store
	events       repository.EventRepository
	users        repository.UserRepository
	winnings     repository.WinningRepository
	engine       *fcfs.Engine
	projector    *fcfs.StatusProjector
	materializer *fcfs.Materializer
	reconciler   *fcfs.Reconciler

	// Connection configuration, used when no store/repositories are injected
	redisAddr     string
	redisPassword string
	redisDB       int
	dbPath        string
	sqlite        *repository.SQLiteStore

	// Domain configuration
	countdownHorizon    time.Duration
	progressHorizon     time.Duration
	reconcileMargin     time.Duration
	materializeWindow   time.Duration
	materializeInterval time.Duration
	reconcileInterval   time.Duration
	answerAlphabet      string
	answerLength        int

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		redisAddr:           "localhost:6379",
		dbPath:              "rushgate.db",
		countdownHorizon:    fcfs.DefaultCountdownHorizon,
		progressHorizon:     fcfs.DefaultProgressHorizon,
		reconcileMargin:     fcfs.DefaultReconcileMargin,
		materializeWindow:   fcfs.DefaultMaterializeWindow,
		materializeInterval: time.Hour,
		reconcileInterval:   time.Hour,
		answerAlphabet:      token.DefaultAlphabet,
		answerLength:        token.DefaultLength,
		stopCh:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start connects the backing stores, builds the admission components, runs an
// immediate materialization pass, and launches the schedule loops.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting admission service...")

	if s.store == nil {
		store, err := kv.NewRedisStore(ctx, s.redisAddr,
			kv.WithPassword(s.redisPassword),
			kv.WithDB(s.redisDB),
		)
		if err != nil {
			return err
		}
		s.store = store
	}
	if s.events == nil || s.users == nil || s.winnings == nil {
		sqlite, err := repository.OpenSQLite(s.dbPath)
		if err != nil {
			return err
		}
		s.sqlite = sqlite
		s.events = sqlite
		s.users = sqlite
		s.winnings = sqlite
	}

	tokens := token.NewGenerator(
		token.WithAlphabet(s.answerAlphabet),
		token.WithLength(s.answerLength),
	)
	s.engine = fcfs.NewEngine(s.store,
		fcfs.WithEngineLogger(s.logger.Named("admission")),
	)
	s.projector = fcfs.NewStatusProjector(s.store,
		fcfs.WithCountdownHorizon(s.countdownHorizon),
		fcfs.WithProgressHorizon(s.progressHorizon),
	)
	s.materializer = fcfs.NewMaterializer(s.store, s.events,
		fcfs.WithMaterializeWindow(s.materializeWindow),
		fcfs.WithTokenGenerator(tokens),
		fcfs.WithMaterializerLogger(s.logger.Named("materializer")),
	)
	s.reconciler = fcfs.NewReconciler(s.store, s.events, s.users, s.winnings,
		fcfs.WithReconcileProgressHorizon(s.progressHorizon),
		fcfs.WithReconcileMargin(s.reconcileMargin),
		fcfs.WithReconcilerLogger(s.logger.Named("reconciler")),
	)

	// Run-at-start materialization so events due before the first tick are
	// ready. A failure is retried by the loop, not fatal to startup.
	if err := s.materializer.MaterializeUpcoming(ctx); err != nil {
		s.logger.Error(ctx, "initial materialization failed", logger.Error(err))
	}

	s.wg.Add(2)
	go s.runLoop("materialize", s.materializeInterval, s.materializer.MaterializeUpcoming)
	go s.runLoop("reconcile", s.reconcileInterval, s.reconciler.Reconcile)

	s.started = true
	s.logger.Info(ctx, "admission service started",
		logger.Duration("materializeInterval", s.materializeInterval),
		logger.Duration("reconcileInterval", s.reconcileInterval),
	)
	return nil
}

// runLoop runs job on a fixed interval until Stop. Both jobs are idempotent,
// so overlapping or redundant runs across restarts are safe.
func (s *Service) runLoop(name string, interval time.Duration, job func(context.Context) error) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			ctx := context.Background()
			if err := job(ctx); err != nil {
				s.logger.Error(ctx, "scheduled job failed",
					logger.String("job", name),
					logger.Error(err),
				)
			}
		}
	}
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping admission service...")

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.wg.Wait()

	if s.store != nil {
		_ = s.store.Close()
	}
	if s.sqlite != nil {
		_ = s.sqlite.Close()
	}

	s.started = false
	s.logger.Info(ctx, "admission service stopped")
}

// Participate verifies the submitted answer and, if it matches, runs the
// admission attempt. A wrong answer short-circuits: no admission state is
// touched and the participant may retry.
func (s *Service) Participate(ctx context.Context, eventID, userID, answer string) (answerOK, won bool, err error) {
	answerOK, err = s.engine.CheckAnswer(ctx, eventID, answer)
	if err != nil {
		return false, false, err
	}
	if !answerOK {
		return false, false, nil
	}
	won, err = s.engine.AttemptAdmission(ctx, eventID, userID)
	if err != nil {
		return true, false, err
	}
	return true, won, nil
}

// GetStatus returns the event's start time and lifecycle label.
func (s *Service) GetStatus(ctx context.Context, eventID string) (model.StatusInfo, error) {
	return s.projector.GetStatus(ctx, eventID)
}

// HasParticipated reports whether userID already acted in the event.
func (s *Service) HasParticipated(ctx context.Context, eventID, userID string) (bool, error) {
	return s.engine.HasParticipated(ctx, eventID, userID)
}

// ListWinners returns the reconciled winners of an event from durable storage.
func (s *Service) ListWinners(ctx context.Context, eventID string) ([]model.WinningRecord, error) {
	def, err := s.events.FindByExternalID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.winnings.ListByEvent(ctx, def.Seq)
}

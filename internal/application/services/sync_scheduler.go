package services

import (
	"context"
	"sync"
	"time"

	"github.com/carebridge/availability-sync/internal/domain/providers"
	"github.com/carebridge/availability-sync/internal/infrastructure/observability"
)

// SyncScheduler runs a sync task on a fixed interval, guarded by a
// cluster-wide advisory lock so only one instance does the work per tick
type SyncScheduler struct {
	name         string
	lockName     string
	initialDelay time.Duration
	interval     time.Duration
	locker       providers.AdvisoryLocker
	task         func(ctx context.Context) error
	metrics      *observability.Metrics

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(
	name string,
	lockName string,
	initialDelay time.Duration,
	interval time.Duration,
	locker providers.AdvisoryLocker,
	task func(ctx context.Context) error,
	metrics *observability.Metrics,
) *SyncScheduler {
	return &SyncScheduler{
		name:         name,
		lockName:     lockName,
		initialDelay: initialDelay,
		interval:     interval,
		locker:       locker,
		task:         task,
		metrics:      metrics,
	}
}

// Start launches the background sync loop. It returns false when the loop
// is already running.
func (s *SyncScheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	observability.GetLogger().Info().
		Str("scheduler", s.name).
		Dur("initial_delay", s.initialDelay).
		Dur("interval", s.interval).
		Msg("Starting sync scheduler")

	go s.run(ctx)

	return true
}

// Stop cancels the background loop. It returns false when the loop is not
// running. An in-flight tick keeps its lock until it finishes; Stop does
// not wait for it.
func (s *SyncScheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return false
	}

	observability.GetLogger().Info().
		Str("scheduler", s.name).
		Msg("Stopping sync scheduler")

	s.cancel()
	s.running = false
	s.cancel = nil

	return true
}

// IsRunning reports whether the background loop is active
func (s *SyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// run waits out the initial delay, then alternates tick and interval sleep.
// The next tick is scheduled a full interval after the previous one finishes,
// so a slow pass never stacks ticks.
func (s *SyncScheduler) run(ctx context.Context) {
	select {
	case <-time.After(s.initialDelay):
	case <-ctx.Done():
		return
	}

	for {
		s.tick(ctx)

		select {
		case <-time.After(s.interval):
		case <-ctx.Done():
			return
		}
	}
}

// tick runs one guarded sync pass. A panicking task must not kill the loop.
func (s *SyncScheduler) tick(ctx context.Context) {
	logger := observability.LoggerFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Str("scheduler", s.name).
				Interface("panic", r).
				Msgf("Sync task panicked, will retry in %.0f seconds", s.interval.Seconds())
		}
	}()

	acquired, err := s.locker.TryWithLock(ctx, s.lockName, s.task)
	if err != nil {
		logger.Warn().Err(err).
			Str("scheduler", s.name).
			Msgf("Sync task failed, will retry in %.0f seconds", s.interval.Seconds())
		return
	}
	if !acquired {
		if s.metrics != nil {
			s.metrics.TicksSkipped.Add(ctx, 1)
		}
		logger.Debug().
			Str("scheduler", s.name).
			Str("lock", s.lockName).
			Msg("Sync lock held elsewhere, skipping tick")
	}
}

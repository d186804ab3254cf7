package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carebridge/availability-sync/internal/application/services"
)

func TestSyncScheduler_StartStop(t *testing.T) {
	t.Run("start and stop report state transitions", func(t *testing.T) {
		// Arrange
		locker := new(MockAdvisoryLocker)
		locker.On("TryWithLock", mock.Anything, "availability-sync").Return(true, nil).Maybe()
		scheduler := services.NewSyncScheduler(
			"availability", "availability-sync",
			time.Hour, time.Hour,
			locker,
			func(ctx context.Context) error { return nil },
			nil,
		)

		// Act / Assert
		assert.False(t, scheduler.IsRunning())
		assert.True(t, scheduler.Start())
		assert.True(t, scheduler.IsRunning())
		assert.False(t, scheduler.Start(), "second start must be a no-op")

		assert.True(t, scheduler.Stop())
		assert.False(t, scheduler.IsRunning())
		assert.False(t, scheduler.Stop(), "second stop must be a no-op")
	})

	t.Run("can be restarted after a stop", func(t *testing.T) {
		// Arrange
		locker := new(MockAdvisoryLocker)
		locker.On("TryWithLock", mock.Anything, "availability-sync").Return(true, nil).Maybe()
		scheduler := services.NewSyncScheduler(
			"availability", "availability-sync",
			time.Hour, time.Hour,
			locker,
			func(ctx context.Context) error { return nil },
			nil,
		)

		// Act / Assert
		assert.True(t, scheduler.Start())
		assert.True(t, scheduler.Stop())
		assert.True(t, scheduler.Start())
		assert.True(t, scheduler.IsRunning())
		scheduler.Stop()
	})
}

func TestSyncScheduler_Ticks(t *testing.T) {
	t.Run("runs the task after the initial delay and on each tick", func(t *testing.T) {
		// Arrange
		var runs atomic.Int64
		locker := new(MockAdvisoryLocker)
		locker.On("TryWithLock", mock.Anything, "availability-sync").Return(true, nil)
		scheduler := services.NewSyncScheduler(
			"availability", "availability-sync",
			time.Millisecond, 5*time.Millisecond,
			locker,
			func(ctx context.Context) error {
				runs.Add(1)
				return nil
			},
			nil,
		)

		// Act
		scheduler.Start()
		defer scheduler.Stop()

		// Assert
		assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
	})

	t.Run("does no work while the lock is held elsewhere", func(t *testing.T) {
		// Arrange
		var runs atomic.Int64
		locker := new(MockAdvisoryLocker)
		locker.On("TryWithLock", mock.Anything, "availability-sync").Return(false, nil)
		scheduler := services.NewSyncScheduler(
			"availability", "availability-sync",
			time.Millisecond, 2*time.Millisecond,
			locker,
			func(ctx context.Context) error {
				runs.Add(1)
				return nil
			},
			nil,
		)

		// Act
		scheduler.Start()
		time.Sleep(20 * time.Millisecond)
		scheduler.Stop()

		// Assert
		assert.Zero(t, runs.Load())
	})

	t.Run("a failing task does not stop the loop", func(t *testing.T) {
		// Arrange
		var runs atomic.Int64
		locker := new(MockAdvisoryLocker)
		locker.On("TryWithLock", mock.Anything, "availability-sync").Return(true, nil)
		scheduler := services.NewSyncScheduler(
			"availability", "availability-sync",
			time.Millisecond, 5*time.Millisecond,
			locker,
			func(ctx context.Context) error {
				runs.Add(1)
				return errors.New("EHR unavailable")
			},
			nil,
		)

		// Act
		scheduler.Start()
		defer scheduler.Stop()

		// Assert
		assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	})

	t.Run("stop prevents further ticks", func(t *testing.T) {
		// Arrange
		var runs atomic.Int64
		locker := new(MockAdvisoryLocker)
		locker.On("TryWithLock", mock.Anything, "availability-sync").Return(true, nil)
		scheduler := services.NewSyncScheduler(
			"availability", "availability-sync",
			time.Millisecond, 2*time.Millisecond,
			locker,
			func(ctx context.Context) error {
				runs.Add(1)
				return nil
			},
			nil,
		)

		scheduler.Start()
		assert.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, time.Millisecond)

		// Act
		scheduler.Stop()
		time.Sleep(10 * time.Millisecond)
		after := runs.Load()
		time.Sleep(20 * time.Millisecond)

		// Assert
		assert.Equal(t, after, runs.Load())
	})
}

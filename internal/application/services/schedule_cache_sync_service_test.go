package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/availability-sync/internal/application/services"
	"github.com/carebridge/availability-sync/internal/domain/entities"
	apperrors "github.com/carebridge/availability-sync/pkg/errors"
)

func wideWindowInstitution() *entities.Institution {
	institution := testInstitution()
	institution.WideWindowSyncEnabled = true
	institution.ScheduleCacheExpiration = time.Hour
	return institution
}

func newCacheServiceFixture(daysAhead, workers int) (*services.ScheduleCacheSyncService, *MockInstitutionRepository, *MockScheduleCacheRepository, *MockSlotSource) {
	institutionRepo := new(MockInstitutionRepository)
	cacheRepo := new(MockScheduleCacheRepository)
	slotSource := new(MockSlotSource)
	service := services.NewScheduleCacheSyncService(
		institutionRepo, cacheRepo, slotSource, daysAhead, workers, 30*time.Second, nil)
	return service, institutionRepo, cacheRepo, slotSource
}

func TestScheduleCacheSyncService_SyncDate(t *testing.T) {
	institution := wideWindowInstitution()
	location, _ := time.LoadLocation(institution.TimeZone)
	date := time.Date(2026, 3, 9, 0, 0, 0, 0, location)
	payload := json.RawMessage(`{"appointments":[{"id":"a1"}]}`)

	t.Run("fresh cache entry short-circuits the EHR call", func(t *testing.T) {
		// Arrange
		service, _, cacheRepo, slotSource := newCacheServiceFixture(1, 1)

		cacheRepo.On("Get", mock.Anything, institution.ID, date).Return(&entities.ScheduleCacheEntry{
			InstitutionID: institution.ID,
			Date:          date,
			APIResponse:   payload,
			LastUpdated:   time.Now().Add(-time.Minute),
		}, nil)

		// Act
		err := service.SyncDate(context.Background(), institution, date)

		// Assert
		require.NoError(t, err)
		slotSource.AssertNotCalled(t, "FindAppointments", mock.Anything, mock.Anything, mock.Anything)
		cacheRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("stale entry is refetched and upserted", func(t *testing.T) {
		// Arrange
		service, _, cacheRepo, slotSource := newCacheServiceFixture(1, 1)

		cacheRepo.On("Get", mock.Anything, institution.ID, date).Return(&entities.ScheduleCacheEntry{
			InstitutionID: institution.ID,
			Date:          date,
			APIResponse:   payload,
			LastUpdated:   time.Now().Add(-2 * time.Hour),
		}, nil)
		slotSource.On("FindAppointments", mock.Anything, date, date.AddDate(0, 0, 1)).Return(payload, nil)
		cacheRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(entry *entities.ScheduleCacheEntry) bool {
			return entry.InstitutionID == institution.ID && entry.Date.Equal(date) && string(entry.APIResponse) == string(payload)
		})).Return(nil)

		// Act
		err := service.SyncDate(context.Background(), institution, date)

		// Assert
		require.NoError(t, err)
		cacheRepo.AssertExpectations(t)
		slotSource.AssertExpectations(t)
	})

	t.Run("cache miss fetches the window for the full local day", func(t *testing.T) {
		// Arrange
		service, _, cacheRepo, slotSource := newCacheServiceFixture(1, 1)

		cacheRepo.On("Get", mock.Anything, institution.ID, date).Return(nil, nil)
		slotSource.On("FindAppointments", mock.Anything, date, date.AddDate(0, 0, 1)).Return(payload, nil)
		cacheRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		// Act
		err := service.SyncDate(context.Background(), institution, date)

		// Assert
		require.NoError(t, err)
		slotSource.AssertExpectations(t)
	})

	t.Run("EHR failure is returned without touching the cache", func(t *testing.T) {
		// Arrange
		service, _, cacheRepo, slotSource := newCacheServiceFixture(1, 1)

		cacheRepo.On("Get", mock.Anything, institution.ID, date).Return(nil, nil)
		slotSource.On("FindAppointments", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("EHR timeout"))

		// Act
		err := service.SyncDate(context.Background(), institution, date)

		// Assert
		assert.Error(t, err)
		cacheRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})
}

func TestScheduleCacheSyncService_SyncAll(t *testing.T) {
	institution := wideWindowInstitution()
	payload := json.RawMessage(`{"appointments":[]}`)

	t.Run("covers every date in the window", func(t *testing.T) {
		// Arrange
		daysAhead := 5
		service, institutionRepo, cacheRepo, slotSource := newCacheServiceFixture(daysAhead, 2)

		institutionRepo.On("ListWideWindowSyncEnabled", mock.Anything).Return([]*entities.Institution{institution}, nil)
		cacheRepo.On("Get", mock.Anything, institution.ID, mock.Anything).Return(nil, nil)
		slotSource.On("FindAppointments", mock.Anything, mock.Anything, mock.Anything).Return(payload, nil)
		cacheRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		// Act
		err := service.SyncAll(context.Background())

		// Assert
		require.NoError(t, err)
		cacheRepo.AssertNumberOfCalls(t, "Upsert", daysAhead)
	})

	t.Run("one failing date does not stop the rest", func(t *testing.T) {
		// Arrange
		daysAhead := 4
		service, institutionRepo, cacheRepo, slotSource := newCacheServiceFixture(daysAhead, 1)

		institutionRepo.On("ListWideWindowSyncEnabled", mock.Anything).Return([]*entities.Institution{institution}, nil)
		cacheRepo.On("Get", mock.Anything, institution.ID, mock.Anything).Return(nil, nil)
		slotSource.On("FindAppointments", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("EHR timeout")).Once()
		slotSource.On("FindAppointments", mock.Anything, mock.Anything, mock.Anything).Return(payload, nil)
		cacheRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		// Act
		err := service.SyncAll(context.Background())

		// Assert
		require.NoError(t, err)
		cacheRepo.AssertNumberOfCalls(t, "Upsert", daysAhead-1)
	})

	t.Run("exhausting the time budget aborts the institution but not the run", func(t *testing.T) {
		// Arrange
		daysAhead := 3
		institutionRepo := new(MockInstitutionRepository)
		cacheRepo := new(MockScheduleCacheRepository)
		slotSource := new(MockSlotSource)
		service := services.NewScheduleCacheSyncService(
			institutionRepo, cacheRepo, slotSource, daysAhead, daysAhead, 50*time.Millisecond, nil)

		institutionRepo.On("ListWideWindowSyncEnabled", mock.Anything).Return([]*entities.Institution{institution}, nil)
		cacheRepo.On("Get", mock.Anything, institution.ID, mock.Anything).Return(nil, nil)
		// The EHR hangs until the per-institution budget expires
		slotSource.On("FindAppointments", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.DeadlineExceeded)

		// Act
		err := service.SyncAll(context.Background())

		// Assert
		require.NoError(t, err)
		cacheRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("a canceled run stops instead of reporting a timeout", func(t *testing.T) {
		// Arrange
		service, institutionRepo, cacheRepo, slotSource := newCacheServiceFixture(2, 2)

		institutionRepo.On("ListWideWindowSyncEnabled", mock.Anything).Return([]*entities.Institution{institution}, nil)
		cacheRepo.On("Get", mock.Anything, institution.ID, mock.Anything).Return(nil, nil)
		slotSource.On("FindAppointments", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.Canceled)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		// Act
		err := service.SyncAll(ctx)

		// Assert
		require.ErrorIs(t, err, context.Canceled)
		var appErr *apperrors.AppError
		assert.False(t, errors.As(err, &appErr), "cancellation must not be wrapped as a timeout")
		cacheRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("propagates institution listing failures", func(t *testing.T) {
		// Arrange
		service, institutionRepo, _, _ := newCacheServiceFixture(1, 1)

		institutionRepo.On("ListWideWindowSyncEnabled", mock.Anything).Return(nil, errors.New("connection reset"))

		// Act
		err := service.SyncAll(context.Background())

		// Assert
		assert.Error(t, err)
	})
}

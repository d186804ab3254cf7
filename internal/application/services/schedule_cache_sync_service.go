package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carebridge/availability-sync/internal/domain/entities"
	"github.com/carebridge/availability-sync/internal/domain/providers"
	"github.com/carebridge/availability-sync/internal/domain/repositories"
	"github.com/carebridge/availability-sync/internal/infrastructure/observability"
	apperrors "github.com/carebridge/availability-sync/pkg/errors"
)

// ScheduleCacheSyncService refreshes the wide-window schedule cache, one EHR
// call per institution and date, fanned out over a bounded worker pool
type ScheduleCacheSyncService struct {
	institutionRepo repositories.InstitutionRepository
	cacheRepo       repositories.ScheduleCacheRepository
	slotSource      providers.SlotSource
	daysAhead       int
	workers         int
	timeout         time.Duration
	metrics         *observability.Metrics
	now             func() time.Time
}

// NewScheduleCacheSyncService creates a new schedule cache sync service
func NewScheduleCacheSyncService(
	institutionRepo repositories.InstitutionRepository,
	cacheRepo repositories.ScheduleCacheRepository,
	slotSource providers.SlotSource,
	daysAhead int,
	workers int,
	timeout time.Duration,
	metrics *observability.Metrics,
) *ScheduleCacheSyncService {
	return &ScheduleCacheSyncService{
		institutionRepo: institutionRepo,
		cacheRepo:       cacheRepo,
		slotSource:      slotSource,
		daysAhead:       daysAhead,
		workers:         workers,
		timeout:         timeout,
		metrics:         metrics,
		now:             time.Now,
	}
}

// SyncAll refreshes the cache for every institution with the wide-window
// sync enabled. One institution's failure never blocks the others.
func (s *ScheduleCacheSyncService) SyncAll(ctx context.Context) error {
	logger := observability.LoggerFromContext(ctx)

	institutions, err := s.institutionRepo.ListWideWindowSyncEnabled(ctx)
	if err != nil {
		return err
	}

	for _, institution := range institutions {
		if err := s.syncInstitution(ctx, institution); err != nil {
			if ctx.Err() != nil {
				// The run itself was canceled, e.g. a shutdown mid-tick.
				// The remaining institutions wait for the next tick.
				return err
			}
			logger.Warn().Err(err).
				Str("institution_id", institution.ID).
				Msg("Failed to sync schedule cache for institution")
		}
	}

	return nil
}

// syncInstitution fans the institution's date window out over the worker
// pool. Each date fails on its own; only running out of the overall time
// budget fails the institution.
func (s *ScheduleCacheSyncService) syncInstitution(ctx context.Context, institution *entities.Institution) error {
	logger := observability.LoggerFromContext(ctx)

	location, err := institution.Location()
	if err != nil {
		return apperrors.NewInternalError(
			fmt.Sprintf("invalid time zone %q for institution %s", institution.TimeZone, institution.ID), err)
	}

	nowInZone := s.now().In(location)
	today := time.Date(nowInZone.Year(), nowInZone.Month(), nowInZone.Day(), 0, 0, 0, 0, location)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var failed atomic.Int64
	var group errgroup.Group
	group.SetLimit(s.workers)

	for i := 0; i < s.daysAhead; i++ {
		date := today.AddDate(0, 0, i)
		group.Go(func() error {
			if err := s.SyncDate(ctx, institution, date); err != nil {
				failed.Add(1)
				if s.metrics != nil {
					s.metrics.DateSyncFailures.Add(ctx, 1)
				}
				logger.Warn().Err(err).
					Str("institution_id", institution.ID).
					Str("date", date.Format("2006-01-02")).
					Msg("Failed to sync schedule cache date")
			}
			return nil
		})
	}

	_ = group.Wait()

	switch err := ctx.Err(); {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewInternalError(
			fmt.Sprintf("schedule cache sync for institution %s ran out of time", institution.ID), err)
	case err != nil:
		return err
	}

	logger.Debug().
		Str("institution_id", institution.ID).
		Int("dates", s.daysAhead).
		Int64("failed", failed.Load()).
		Msg("Schedule cache sync complete for institution")

	return nil
}

// SyncDate refreshes one institution date, skipping the EHR call while the
// cached entry is still fresh
func (s *ScheduleCacheSyncService) SyncDate(ctx context.Context, institution *entities.Institution, date time.Time) error {
	logger := observability.LoggerFromContext(ctx)

	entry, err := s.cacheRepo.Get(ctx, institution.ID, date)
	if err != nil {
		return err
	}
	if entry != nil && !s.isStale(entry, institution) {
		if s.metrics != nil {
			s.metrics.ScheduleCacheHits.Add(ctx, 1)
		}
		logger.Debug().
			Str("institution_id", institution.ID).
			Str("date", date.Format("2006-01-02")).
			Time("last_updated", entry.LastUpdated).
			Msg("Schedule cache entry still fresh, skipping")
		return nil
	}
	if s.metrics != nil {
		s.metrics.ScheduleCacheMisses.Add(ctx, 1)
	}

	location, err := institution.Location()
	if err != nil {
		return apperrors.NewInternalError("invalid institution time zone", err)
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, location)
	end := start.AddDate(0, 0, 1)

	payload, err := s.slotSource.FindAppointments(ctx, start, end)
	if err != nil {
		return err
	}

	return s.cacheRepo.Upsert(ctx, &entities.ScheduleCacheEntry{
		InstitutionID: institution.ID,
		Date:          date,
		APIResponse:   payload,
		LastUpdated:   s.now(),
	})
}

func (s *ScheduleCacheSyncService) isStale(entry *entities.ScheduleCacheEntry, institution *entities.Institution) bool {
	return entry.LastUpdated.Before(s.now().Add(-institution.ScheduleCacheExpiration))
}

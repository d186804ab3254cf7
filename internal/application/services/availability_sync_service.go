package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/availability-sync/internal/domain/entities"
	"github.com/carebridge/availability-sync/internal/domain/repositories"
	"github.com/carebridge/availability-sync/internal/infrastructure/observability"
	apperrors "github.com/carebridge/availability-sync/pkg/errors"
)

// AvailabilitySyncService syncs per-provider availability from the EHR into
// the local store, one provider and date at a time
type AvailabilitySyncService struct {
	institutionRepo repositories.InstitutionRepository
	providerRepo    repositories.ProviderRepository
	builder         *AvailabilityBuilder
	reconciler      *AvailabilityReconciler
	daysAhead       int
	metrics         *observability.Metrics
	now             func() time.Time
}

// NewAvailabilitySyncService creates a new availability sync service
func NewAvailabilitySyncService(
	institutionRepo repositories.InstitutionRepository,
	providerRepo repositories.ProviderRepository,
	builder *AvailabilityBuilder,
	reconciler *AvailabilityReconciler,
	daysAhead int,
	metrics *observability.Metrics,
) *AvailabilitySyncService {
	return &AvailabilitySyncService{
		institutionRepo: institutionRepo,
		providerRepo:    providerRepo,
		builder:         builder,
		reconciler:      reconciler,
		daysAhead:       daysAhead,
		metrics:         metrics,
		now:             time.Now,
	}
}

// SyncAll syncs every active provider across every institution. One
// provider's failure never blocks the others.
func (s *AvailabilitySyncService) SyncAll(ctx context.Context) error {
	logger := observability.LoggerFromContext(ctx)
	started := s.now()

	institutions, err := s.institutionRepo.ListWithActiveProviders(ctx)
	if err != nil {
		return err
	}

	total := 0
	synced := 0
	for _, institution := range institutions {
		providerList, err := s.providerRepo.ListActiveByInstitution(ctx, institution.ID)
		if err != nil {
			logger.Warn().Err(err).
				Str("institution_id", institution.ID).
				Msg("Failed to list providers for institution, skipping")
			continue
		}

		for _, provider := range providerList {
			total++
			if err := s.syncProvider(ctx, institution, provider); err != nil {
				if s.metrics != nil {
					s.metrics.ProviderSyncFailures.Add(ctx, 1)
				}
				logger.Warn().Err(err).
					Str("institution_id", institution.ID).
					Str("provider_id", provider.ID.String()).
					Str("provider_name", provider.Name).
					Msg("Failed to sync provider availability")
				continue
			}
			synced++
		}
	}

	logger.Info().
		Int("synced", synced).
		Int("total", total).
		Dur("elapsed", s.now().Sub(started)).
		Msgf("Provider availability sync complete, synced %d of %d providers", synced, total)

	return nil
}

// syncProvider builds every date in the window before committing any of
// them, so a mid-window EHR failure leaves the store untouched. Each date
// then commits in its own transaction.
func (s *AvailabilitySyncService) syncProvider(ctx context.Context, institution *entities.Institution, provider *entities.Provider) error {
	location, err := provider.Location()
	if err != nil {
		return apperrors.NewInternalError("invalid provider time zone", err)
	}

	nowInZone := s.now().In(location)
	today := time.Date(nowInZone.Year(), nowInZone.Month(), nowInZone.Day(), 0, 0, 0, 0, location)

	days := make([]*entities.AvailabilityDay, 0, s.daysAhead)
	for i := 0; i < s.daysAhead; i++ {
		day, err := s.builder.BuildDay(ctx, institution, provider, today.AddDate(0, 0, i))
		if err != nil {
			return err
		}
		days = append(days, day)
	}

	for _, day := range days {
		if err := s.reconciler.Commit(ctx, day, true); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.AvailabilityRowsWritten.Add(ctx, int64(len(day.Rows)))
		}
	}

	return nil
}

// SyncProviderAvailability syncs a single provider and date on demand, e.g.
// right after a booking mutated the EHR schedule. It returns false when the
// provider is unknown or not EHR-synced, which callers treat as a no-op.
func (s *AvailabilitySyncService) SyncProviderAvailability(ctx context.Context, providerID uuid.UUID, date time.Time, inOwnTransaction bool) (bool, error) {
	logger := observability.LoggerFromContext(ctx)

	provider, err := s.providerRepo.GetByID(ctx, providerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			logger.Warn().
				Str("provider_id", providerID.String()).
				Msg("On-demand availability sync requested for unknown provider, ignoring")
			return false, nil
		}
		return false, err
	}
	if !provider.Active {
		logger.Debug().
			Str("provider_id", providerID.String()).
			Msg("On-demand availability sync requested for inactive provider, ignoring")
		return false, nil
	}

	institution, err := s.institutionRepo.GetByID(ctx, provider.InstitutionID)
	if err != nil {
		return false, err
	}

	day, err := s.builder.BuildDay(ctx, institution, provider, date)
	if err != nil {
		return false, err
	}
	if err := s.reconciler.Commit(ctx, day, inOwnTransaction); err != nil {
		return false, err
	}
	if s.metrics != nil {
		s.metrics.AvailabilityRowsWritten.Add(ctx, int64(len(day.Rows)))
	}

	return true, nil
}

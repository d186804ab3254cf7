package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/carebridge/availability-sync/internal/domain/entities"
)

// ProviderRepository defines read-only provider directory lookups
type ProviderRepository interface {
	// GetByID retrieves a provider by ID
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Provider, error)

	// ListActiveByInstitution retrieves all active EHR-scheduled providers
	// for an institution
	ListActiveByInstitution(ctx context.Context, institutionID string) ([]*entities.Provider, error)
}

// InstitutionRepository defines read-only institution directory lookups
type InstitutionRepository interface {
	// GetByID retrieves an institution by ID
	GetByID(ctx context.Context, id string) (*entities.Institution, error)

	// ListWithActiveProviders retrieves institutions that have at least one
	// active EHR-scheduled provider
	ListWithActiveProviders(ctx context.Context) ([]*entities.Institution, error)

	// ListWideWindowSyncEnabled retrieves institutions with the wide-window
	// schedule sync enabled
	ListWideWindowSyncEnabled(ctx context.Context) ([]*entities.Institution, error)
}

// AppointmentTypeRepository defines read-only appointment type lookups
type AppointmentTypeRepository interface {
	// ListByProvider retrieves a provider's appointment types
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*entities.AppointmentType, error)
}

// DepartmentRepository defines read-only EHR department lookups
type DepartmentRepository interface {
	// ListByProvider retrieves a provider's EHR departments
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*entities.EhrDepartment, error)
}

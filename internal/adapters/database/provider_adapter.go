package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/carebridge/availability-sync/internal/domain/entities"
	"github.com/carebridge/availability-sync/internal/domain/repositories"
	"github.com/carebridge/availability-sync/internal/infrastructure/clients/postgres"
	apperrors "github.com/carebridge/availability-sync/pkg/errors"
)

// ProviderAdapter implements the ProviderRepository interface
type ProviderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(client *postgres.Client) repositories.ProviderRepository {
	return &ProviderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var providerColumns = []any{
	"id", "institution_id", "name", "time_zone",
	"ehr_provider_id", "ehr_provider_id_type", "slot_classification", "active",
}

// GetByID retrieves a provider by ID
func (a *ProviderAdapter) GetByID(ctx context.Context, id uuid.UUID) (*entities.Provider, error) {
	query, args, err := a.db.Select(providerColumns...).
		From("provider").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	provider, err := scanProvider(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get provider", err)
	}

	return provider, nil
}

// ListActiveByInstitution retrieves all active EHR-scheduled providers for an institution
func (a *ProviderAdapter) ListActiveByInstitution(ctx context.Context, institutionID string) ([]*entities.Provider, error) {
	query, args, err := a.db.Select(providerColumns...).
		From("provider").
		Where(goqu.Ex{"institution_id": institutionID, "active": true}).
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list providers", err)
	}
	defer rows.Close()

	var providers []*entities.Provider
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan provider", err)
		}
		providers = append(providers, provider)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate providers", err)
	}

	return providers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProvider(row rowScanner) (*entities.Provider, error) {
	provider := &entities.Provider{}
	err := row.Scan(
		&provider.ID,
		&provider.InstitutionID,
		&provider.Name,
		&provider.TimeZone,
		&provider.EhrProviderID,
		&provider.EhrProviderIDType,
		&provider.SlotClassification,
		&provider.Active,
	)
	if err != nil {
		return nil, err
	}
	return provider, nil
}

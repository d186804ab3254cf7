package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/carebridge/availability-sync/internal/domain/entities"
	"github.com/carebridge/availability-sync/internal/domain/repositories"
	"github.com/carebridge/availability-sync/internal/infrastructure/clients/postgres"
	apperrors "github.com/carebridge/availability-sync/pkg/errors"
)

// InstitutionAdapter implements the InstitutionRepository interface
type InstitutionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewInstitutionAdapter creates a new institution adapter
func NewInstitutionAdapter(client *postgres.Client) repositories.InstitutionRepository {
	return &InstitutionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var institutionColumns = []any{
	"id", "name", "time_zone", "ehr_user_id", "ehr_user_id_type",
	"wide_window_sync_enabled", "schedule_cache_expiration_in_seconds",
}

// GetByID retrieves an institution by ID
func (a *InstitutionAdapter) GetByID(ctx context.Context, id string) (*entities.Institution, error) {
	query, args, err := a.db.Select(institutionColumns...).
		From("institution").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	institution, err := scanInstitution(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("institution with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get institution", err)
	}

	return institution, nil
}

// ListWithActiveProviders retrieves institutions that have at least one
// active EHR-scheduled provider
func (a *InstitutionAdapter) ListWithActiveProviders(ctx context.Context) ([]*entities.Institution, error) {
	query, args, err := a.db.Select(institutionColumns...).
		From("institution").
		Where(goqu.C("id").In(
			a.db.Select("institution_id").From("provider").Where(goqu.Ex{"active": true}),
		)).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.list(ctx, query, args)
}

// ListWideWindowSyncEnabled retrieves institutions with the wide-window
// schedule sync enabled
func (a *InstitutionAdapter) ListWideWindowSyncEnabled(ctx context.Context) ([]*entities.Institution, error) {
	query, args, err := a.db.Select(institutionColumns...).
		From("institution").
		Where(goqu.Ex{"wide_window_sync_enabled": true}).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.list(ctx, query, args)
}

func (a *InstitutionAdapter) list(ctx context.Context, query string, args []any) ([]*entities.Institution, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list institutions", err)
	}
	defer rows.Close()

	var institutions []*entities.Institution
	for rows.Next() {
		institution, err := scanInstitution(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan institution", err)
		}
		institutions = append(institutions, institution)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate institutions", err)
	}

	return institutions, nil
}

func scanInstitution(row rowScanner) (*entities.Institution, error) {
	institution := &entities.Institution{}
	var expirationSeconds int64
	err := row.Scan(
		&institution.ID,
		&institution.Name,
		&institution.TimeZone,
		&institution.EhrUserID,
		&institution.EhrUserIDType,
		&institution.WideWindowSyncEnabled,
		&expirationSeconds,
	)
	if err != nil {
		return nil, err
	}
	institution.ScheduleCacheExpiration = time.Duration(expirationSeconds) * time.Second
	return institution, nil
}

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/carebridge/availability-sync/internal/domain/entities"
	"github.com/carebridge/availability-sync/internal/domain/repositories"
	"github.com/carebridge/availability-sync/internal/infrastructure/clients/postgres"
	apperrors "github.com/carebridge/availability-sync/pkg/errors"
)

// ScheduleCacheAdapter implements the ScheduleCacheRepository interface
type ScheduleCacheAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewScheduleCacheAdapter creates a new schedule cache adapter
func NewScheduleCacheAdapter(client *postgres.Client) repositories.ScheduleCacheRepository {
	return &ScheduleCacheAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Get retrieves a cache entry, or nil when no entry exists for the key
func (a *ScheduleCacheAdapter) Get(ctx context.Context, institutionID string, date time.Time) (*entities.ScheduleCacheEntry, error) {
	query, args, err := a.db.Select(
		"institution_id", "date", "api_response", "last_updated",
	).From("schedule_cache").
		Where(
			goqu.Ex{"institution_id": institutionID},
			goqu.L("date = ?", date.Format("2006-01-02")),
		).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	entry := &entities.ScheduleCacheEntry{}
	var payload []byte
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&entry.InstitutionID,
		&entry.Date,
		&payload,
		&entry.LastUpdated,
	)
	if err == sql.ErrNoRows {
		// Cache miss is a normal outcome
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get schedule cache entry", err)
	}
	entry.APIResponse = payload

	return entry, nil
}

// Upsert inserts or replaces the cache entry for its (institution, date) key
func (a *ScheduleCacheAdapter) Upsert(ctx context.Context, entry *entities.ScheduleCacheEntry) error {
	query := `
		INSERT INTO schedule_cache (institution_id, date, api_response, last_updated)
		VALUES ($1, $2, CAST($3 AS JSONB), $4)
		ON CONFLICT (institution_id, date) DO UPDATE SET
		  api_response = EXCLUDED.api_response,
		  last_updated = EXCLUDED.last_updated
	`

	_, err := a.client.DB().ExecContext(ctx, query,
		entry.InstitutionID,
		entry.Date.Format("2006-01-02"),
		[]byte(entry.APIResponse),
		entry.LastUpdated,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert schedule cache entry", err)
	}

	return nil
}

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/carebridge/availability-sync/internal/domain/entities"
	"github.com/carebridge/availability-sync/internal/domain/repositories"
	"github.com/carebridge/availability-sync/internal/infrastructure/clients/postgres"
	apperrors "github.com/carebridge/availability-sync/pkg/errors"
)

type execContext interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AvailabilityAdapter implements the AvailabilityRepository interface.
// A transaction-bound copy (see InTransaction) routes all statements
// through the transaction.
type AvailabilityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	tx     *sql.Tx
}

// NewAvailabilityAdapter creates a new availability adapter
func NewAvailabilityAdapter(client *postgres.Client) repositories.AvailabilityRepository {
	return &AvailabilityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func (a *AvailabilityAdapter) execer() execContext {
	if a.tx != nil {
		return a.tx
	}
	return a.client.DB()
}

// DeleteDay deletes every availability row for a provider whose timestamp
// falls on the given date
func (a *AvailabilityAdapter) DeleteDay(ctx context.Context, providerID uuid.UUID, date time.Time) error {
	query, args, err := a.db.Delete("provider_availability").
		Where(
			goqu.Ex{"provider_id": providerID},
			goqu.L("date_time::date = ?", date.Format("2006-01-02")),
		).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	if _, err := a.execer().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to delete availability day", err)
	}

	return nil
}

// DeleteBetween deletes a provider's availability rows with
// dateTime > after AND dateTime <= through
func (a *AvailabilityAdapter) DeleteBetween(ctx context.Context, providerID uuid.UUID, after, through time.Time) error {
	query, args, err := a.db.Delete("provider_availability").
		Where(
			goqu.Ex{"provider_id": providerID},
			goqu.C("date_time").Gt(after),
			goqu.C("date_time").Lte(through),
		).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	if _, err := a.execer().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to delete availability window", err)
	}

	return nil
}

// InsertRows batch-inserts availability rows
func (a *AvailabilityAdapter) InsertRows(ctx context.Context, rows []entities.AvailabilityRow) error {
	if len(rows) == 0 {
		return nil
	}

	records := make([]any, 0, len(rows))
	for _, row := range rows {
		records = append(records, goqu.Record{
			"provider_id":         row.ProviderID,
			"appointment_type_id": row.AppointmentTypeID,
			"date_time":           row.DateTime,
			"ehr_department_id":   row.EhrDepartmentID,
		})
	}

	query, args, err := a.db.Insert("provider_availability").Rows(records...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.execer().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert availability rows", err)
	}

	return nil
}

// InTransaction runs fn against a transaction-bound copy of the repository
func (a *AvailabilityAdapter) InTransaction(ctx context.Context, fn func(repo repositories.AvailabilityRepository) error) error {
	if a.tx != nil {
		// Already inside a transaction
		return fn(a)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}

	txRepo := &AvailabilityAdapter{client: a.client, db: a.db, tx: tx}

	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return apperrors.NewInternalError("failed to roll back transaction", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}

	return nil
}

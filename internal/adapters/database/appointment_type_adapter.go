package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/carebridge/availability-sync/internal/domain/entities"
	"github.com/carebridge/availability-sync/internal/domain/repositories"
	"github.com/carebridge/availability-sync/internal/infrastructure/clients/postgres"
	apperrors "github.com/carebridge/availability-sync/pkg/errors"
)

// AppointmentTypeAdapter implements the AppointmentTypeRepository interface
type AppointmentTypeAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAppointmentTypeAdapter creates a new appointment type adapter
func NewAppointmentTypeAdapter(client *postgres.Client) repositories.AppointmentTypeRepository {
	return &AppointmentTypeAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListByProvider retrieves a provider's appointment types
func (a *AppointmentTypeAdapter) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*entities.AppointmentType, error) {
	query, args, err := a.db.Select(
		"id", "provider_id", "name", "duration_in_minutes",
		"ehr_visit_type_id", "ehr_visit_type_id_type",
	).From("appointment_type").
		Where(goqu.Ex{"provider_id": providerID}).
		Order(goqu.I("duration_in_minutes").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointment types", err)
	}
	defer rows.Close()

	var appointmentTypes []*entities.AppointmentType
	for rows.Next() {
		appointmentType := &entities.AppointmentType{}
		err := rows.Scan(
			&appointmentType.ID,
			&appointmentType.ProviderID,
			&appointmentType.Name,
			&appointmentType.DurationInMinutes,
			&appointmentType.EhrVisitTypeID,
			&appointmentType.EhrVisitTypeIDType,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment type", err)
		}
		appointmentTypes = append(appointmentTypes, appointmentType)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate appointment types", err)
	}

	return appointmentTypes, nil
}

// DepartmentAdapter implements the DepartmentRepository interface
type DepartmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDepartmentAdapter creates a new EHR department adapter
func NewDepartmentAdapter(client *postgres.Client) repositories.DepartmentRepository {
	return &DepartmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListByProvider retrieves a provider's EHR departments
func (a *DepartmentAdapter) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*entities.EhrDepartment, error) {
	query, args, err := a.db.Select(
		"id", "provider_id", "department_id", "department_id_type",
	).From("ehr_department").
		Where(goqu.Ex{"provider_id": providerID}).
		Order(goqu.I("department_id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list departments", err)
	}
	defer rows.Close()

	var departments []*entities.EhrDepartment
	for rows.Next() {
		department := &entities.EhrDepartment{}
		err := rows.Scan(
			&department.ID,
			&department.ProviderID,
			&department.DepartmentID,
			&department.DepartmentIDType,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan department", err)
		}
		departments = append(departments, department)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate departments", err)
	}

	return departments, nil
}

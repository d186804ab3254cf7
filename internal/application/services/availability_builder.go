package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebridge/availability-sync/internal/domain/entities"
	"github.com/carebridge/availability-sync/internal/domain/providers"
	"github.com/carebridge/availability-sync/internal/domain/repositories"
	"github.com/carebridge/availability-sync/internal/infrastructure/observability"
	apperrors "github.com/carebridge/availability-sync/pkg/errors"
)

// AvailabilityBuilder turns raw EHR schedule slots into availability rows
// for one provider and date. It only talks to the EHR and the directory;
// writing rows is the reconciler's job.
type AvailabilityBuilder struct {
	slotSource          providers.SlotSource
	appointmentTypeRepo repositories.AppointmentTypeRepository
	departmentRepo      repositories.DepartmentRepository
}

// NewAvailabilityBuilder creates a new availability builder
func NewAvailabilityBuilder(
	slotSource providers.SlotSource,
	appointmentTypeRepo repositories.AppointmentTypeRepository,
	departmentRepo repositories.DepartmentRepository,
) *AvailabilityBuilder {
	return &AvailabilityBuilder{
		slotSource:          slotSource,
		appointmentTypeRepo: appointmentTypeRepo,
		departmentRepo:      departmentRepo,
	}
}

// BuildDay builds the complete availability row set for one provider on one
// date. A provider with no appointment types or departments yields an empty
// day, which the reconciler commits as a deletion.
func (b *AvailabilityBuilder) BuildDay(ctx context.Context, institution *entities.Institution, provider *entities.Provider, date time.Time) (*entities.AvailabilityDay, error) {
	logger := observability.LoggerFromContext(ctx)

	location, err := provider.Location()
	if err != nil {
		return nil, apperrors.NewInternalError(
			fmt.Sprintf("invalid time zone %q for provider %s", provider.TimeZone, provider.ID), err)
	}

	day := &entities.AvailabilityDay{
		ProviderID: provider.ID,
		Date:       date,
		TimeZone:   location,
	}

	appointmentTypes, err := b.appointmentTypeRepo.ListByProvider(ctx, provider.ID)
	if err != nil {
		return nil, err
	}
	departments, err := b.departmentRepo.ListByProvider(ctx, provider.ID)
	if err != nil {
		return nil, err
	}
	if len(appointmentTypes) == 0 || len(departments) == 0 {
		return day, nil
	}

	switch provider.SlotClassification {
	case entities.SlotClassificationVisitTypeFiltered:
		day.Rows, err = b.buildVisitTypeFiltered(ctx, institution, provider, appointmentTypes, departments, date, location)
	case entities.SlotClassificationDurationMatched:
		day.Rows, err = b.buildDurationMatched(ctx, institution, provider, appointmentTypes, departments, date, location)
	default:
		err = apperrors.NewInternalError(
			fmt.Sprintf("unknown slot classification %q for provider %s", provider.SlotClassification, provider.ID), nil)
	}
	if err != nil {
		return nil, err
	}

	logBuiltDay(logger, provider, appointmentTypes, day)

	return day, nil
}

// buildVisitTypeFiltered asks the EHR for a pre-filtered schedule per
// appointment type and department
func (b *AvailabilityBuilder) buildVisitTypeFiltered(
	ctx context.Context,
	institution *entities.Institution,
	provider *entities.Provider,
	appointmentTypes []*entities.AppointmentType,
	departments []*entities.EhrDepartment,
	date time.Time,
	location *time.Location,
) ([]entities.AvailabilityRow, error) {
	var rows []entities.AvailabilityRow

	for _, appointmentType := range appointmentTypes {
		for _, department := range departments {
			slots, err := b.slotSource.GetSchedule(ctx, providers.GetScheduleRequest{
				Date:             date,
				ProviderID:       provider.EhrProviderID,
				ProviderIDType:   provider.EhrProviderIDType,
				DepartmentID:     department.DepartmentID,
				DepartmentIDType: department.DepartmentIDType,
				VisitTypeID:      appointmentType.EhrVisitTypeID,
				VisitTypeIDType:  appointmentType.EhrVisitTypeIDType,
				UserID:           institution.EhrUserID,
				UserIDType:       institution.EhrUserIDType,
			})
			if err != nil {
				return nil, err
			}

			for _, slot := range slots {
				if !slotIsOpen(slot) {
					continue
				}
				dateTime, err := slotDateTime(slot, date, location)
				if err != nil {
					return nil, err
				}
				rows = append(rows, entities.AvailabilityRow{
					ProviderID:        provider.ID,
					AppointmentTypeID: appointmentType.ID,
					DateTime:          dateTime,
					EhrDepartmentID:   department.ID,
				})
			}
		}
	}

	return rows, nil
}

// buildDurationMatched pulls the unscoped schedule once per department and
// infers appointment types locally from slot lengths. A slot length matching
// several appointment types yields one row per match.
func (b *AvailabilityBuilder) buildDurationMatched(
	ctx context.Context,
	institution *entities.Institution,
	provider *entities.Provider,
	appointmentTypes []*entities.AppointmentType,
	departments []*entities.EhrDepartment,
	date time.Time,
	location *time.Location,
) ([]entities.AvailabilityRow, error) {
	logger := observability.LoggerFromContext(ctx)

	typesByDuration := make(map[int][]*entities.AppointmentType)
	for _, appointmentType := range appointmentTypes {
		typesByDuration[appointmentType.DurationInMinutes] = append(
			typesByDuration[appointmentType.DurationInMinutes], appointmentType)
	}

	var rows []entities.AvailabilityRow

	for _, department := range departments {
		slots, err := b.slotSource.GetSchedule(ctx, providers.GetScheduleRequest{
			Date:             date,
			ProviderID:       provider.EhrProviderID,
			ProviderIDType:   provider.EhrProviderIDType,
			DepartmentID:     department.DepartmentID,
			DepartmentIDType: department.DepartmentIDType,
			UserID:           institution.EhrUserID,
			UserIDType:       institution.EhrUserIDType,
		})
		if err != nil {
			return nil, err
		}

		for _, slot := range slots {
			if !slotIsOpen(slot) {
				continue
			}
			matched, ok := typesByDuration[slot.LengthInMinutes]
			if !ok {
				logger.Debug().
					Str("provider_id", provider.ID.String()).
					Str("provider_name", provider.Name).
					Int("slot_length_in_minutes", slot.LengthInMinutes).
					Str("slot_start_time", slot.StartTime).
					Msg("No appointment type matches slot length, discarding slot")
				continue
			}
			dateTime, err := slotDateTime(slot, date, location)
			if err != nil {
				return nil, err
			}
			for _, appointmentType := range matched {
				rows = append(rows, entities.AvailabilityRow{
					ProviderID:        provider.ID,
					AppointmentTypeID: appointmentType.ID,
					DateTime:          dateTime,
					EhrDepartmentID:   department.ID,
				})
			}
		}
	}

	return rows, nil
}

// slotIsOpen reports whether a schedule slot is bookable. A slot is open
// when it has openings left and carries no held or unavailable reason.
func slotIsOpen(slot entities.ScheduleSlot) bool {
	return slot.AvailableOpenings > 0 &&
		strings.TrimSpace(slot.HeldTimeReason) == "" &&
		strings.TrimSpace(slot.UnavailableTimeReason) == ""
}

// slotDateTime combines a slot's clock string with the sync date in the
// provider's time zone
func slotDateTime(slot entities.ScheduleSlot, date time.Time, location *time.Location) (time.Time, error) {
	clock, err := time.Parse("3:04 PM", slot.StartTime)
	if err != nil {
		return time.Time{}, apperrors.NewExternalError(
			fmt.Sprintf("malformed slot start time %q", slot.StartTime), err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0, location), nil
}

// logBuiltDay dumps the built day grouped by appointment type at debug level
func logBuiltDay(logger *zerolog.Logger, provider *entities.Provider, appointmentTypes []*entities.AppointmentType, day *entities.AvailabilityDay) {
	if logger.GetLevel() > zerolog.DebugLevel {
		return
	}

	rowsByType := make(map[string]int)
	for _, row := range day.Rows {
		rowsByType[row.AppointmentTypeID.String()]++
	}

	event := logger.Debug().
		Str("provider_id", provider.ID.String()).
		Str("provider_name", provider.Name).
		Str("date", day.Date.Format("2006-01-02")).
		Int("row_count", len(day.Rows))
	for _, appointmentType := range appointmentTypes {
		event = event.Int(fmt.Sprintf("rows_%s", appointmentType.Name), rowsByType[appointmentType.ID.String()])
	}
	event.Msg("Built availability day")
}

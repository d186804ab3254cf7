package entities

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityRow is one bookable opening surfaced to booking flows.
// DateTime is a wall-clock timestamp in the provider's time zone.
type AvailabilityRow struct {
	ProviderID        uuid.UUID `json:"provider_id" db:"provider_id"`
	AppointmentTypeID uuid.UUID `json:"appointment_type_id" db:"appointment_type_id"`
	DateTime          time.Time `json:"date_time" db:"date_time"`
	EhrDepartmentID   uuid.UUID `json:"ehr_department_id" db:"ehr_department_id"`
}

// AvailabilityDay is the complete built row set for one provider on one date,
// ready to be committed as a unit
type AvailabilityDay struct {
	ProviderID uuid.UUID
	Date       time.Time
	TimeZone   *time.Location
	Rows       []AvailabilityRow
}

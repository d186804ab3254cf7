package entities

import (
	"github.com/google/uuid"
)

// AppointmentType represents a bookable visit kind for one provider
type AppointmentType struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	ProviderID         uuid.UUID `json:"provider_id" db:"provider_id"`
	Name               string    `json:"name" db:"name"`
	DurationInMinutes  int       `json:"duration_in_minutes" db:"duration_in_minutes"`
	EhrVisitTypeID     string    `json:"ehr_visit_type_id" db:"ehr_visit_type_id"`
	EhrVisitTypeIDType string    `json:"ehr_visit_type_id_type" db:"ehr_visit_type_id_type"`
}

// EhrDepartment represents an EHR location under which a provider's schedule
// is organized
type EhrDepartment struct {
	ID               uuid.UUID `json:"id" db:"id"`
	ProviderID       uuid.UUID `json:"provider_id" db:"provider_id"`
	DepartmentID     string    `json:"department_id" db:"department_id"`
	DepartmentIDType string    `json:"department_id_type" db:"department_id_type"`
}

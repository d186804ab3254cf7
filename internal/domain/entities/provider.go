package entities

import (
	"time"

	"github.com/google/uuid"
)

// SlotClassification selects how raw schedule slots are mapped to a
// provider's appointment types.
type SlotClassification string

const (
	// SlotClassificationVisitTypeFiltered asks the EHR to pre-filter slots by
	// visit type, one call per appointment type and department
	SlotClassificationVisitTypeFiltered SlotClassification = "VISIT_TYPE_FILTERED"

	// SlotClassificationDurationMatched infers the appointment type locally
	// from the slot length in minutes
	SlotClassificationDurationMatched SlotClassification = "DURATION_MATCHED"
)

// Provider represents a care provider whose availability is synced from the EHR
type Provider struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	InstitutionID      string             `json:"institution_id" db:"institution_id"`
	Name               string             `json:"name" db:"name"`
	TimeZone           string             `json:"time_zone" db:"time_zone"`
	EhrProviderID      string             `json:"ehr_provider_id" db:"ehr_provider_id"`
	EhrProviderIDType  string             `json:"ehr_provider_id_type" db:"ehr_provider_id_type"`
	SlotClassification SlotClassification `json:"slot_classification" db:"slot_classification"`
	Active             bool               `json:"active" db:"active"`
}

// Location resolves the provider's IANA time zone name
func (p *Provider) Location() (*time.Location, error) {
	return time.LoadLocation(p.TimeZone)
}

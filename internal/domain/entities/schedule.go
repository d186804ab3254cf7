package entities

import (
	"encoding/json"
	"time"
)

// ScheduleSlot is one EHR-reported time unit on a provider's schedule.
// StartTime is the raw clock string from the EHR, e.g. "8:30 AM".
// Blank held/unavailable reasons mean the slot is neither held nor unavailable.
type ScheduleSlot struct {
	StartTime             string `json:"start_time"`
	LengthInMinutes       int    `json:"length_in_minutes"`
	AvailableOpenings     int    `json:"available_openings"`
	HeldTimeReason        string `json:"held_time_reason"`
	UnavailableTimeReason string `json:"unavailable_time_reason"`
}

// ScheduleCacheEntry is one cached wide-window EHR response for an
// institution and date. The payload is kept verbatim and consumed opaquely.
type ScheduleCacheEntry struct {
	InstitutionID string          `json:"institution_id" db:"institution_id"`
	Date          time.Time       `json:"date" db:"date"`
	APIResponse   json.RawMessage `json:"api_response" db:"api_response"`
	LastUpdated   time.Time       `json:"last_updated" db:"last_updated"`
}

package entities

import (
	"time"
)

// Institution groups providers under one EHR tenant
type Institution struct {
	ID                      string        `json:"id" db:"id"`
	Name                    string        `json:"name" db:"name"`
	TimeZone                string        `json:"time_zone" db:"time_zone"`
	EhrUserID               string        `json:"ehr_user_id" db:"ehr_user_id"`
	EhrUserIDType           string        `json:"ehr_user_id_type" db:"ehr_user_id_type"`
	WideWindowSyncEnabled   bool          `json:"wide_window_sync_enabled" db:"wide_window_sync_enabled"`
	ScheduleCacheExpiration time.Duration `json:"schedule_cache_expiration" db:"schedule_cache_expiration"`
}

// Location resolves the institution's IANA time zone name
func (i *Institution) Location() (*time.Location, error) {
	return time.LoadLocation(i.TimeZone)
}

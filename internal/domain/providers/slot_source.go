package providers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/carebridge/availability-sync/internal/domain/entities"
)

// GetScheduleRequest identifies one provider/department/date schedule pull.
// VisitTypeID/VisitTypeIDType are set only for visit-type-filtered providers;
// blank means no visit-type scoping.
type GetScheduleRequest struct {
	Date             time.Time
	ProviderID       string
	ProviderIDType   string
	DepartmentID     string
	DepartmentIDType string
	VisitTypeID      string
	VisitTypeIDType  string
	UserID           string
	UserIDType       string
}

// SlotSource defines the interface for the external scheduling system (EHR)
type SlotSource interface {
	// GetSchedule returns a provider's raw schedule slots for one
	// department and date
	GetSchedule(ctx context.Context, req GetScheduleRequest) ([]entities.ScheduleSlot, error)

	// FindAppointments returns the EHR's open-slot payload for a wide time
	// window across all providers and departments, kept verbatim for caching
	FindAppointments(ctx context.Context, start, end time.Time) (json.RawMessage, error)
}

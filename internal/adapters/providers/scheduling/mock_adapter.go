package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carebridge/availability-sync/internal/domain/entities"
	"github.com/carebridge/availability-sync/internal/domain/providers"
)

// MockAdapter is a deterministic SlotSource for development and tests.
// It serves a fixed morning block of open slots for every provider.
type MockAdapter struct{}

// NewMockAdapter creates a new mock slot source
func NewMockAdapter() providers.SlotSource {
	return &MockAdapter{}
}

// GetSchedule returns a fixed set of open half-hour slots starting at 9:00 AM
func (m *MockAdapter) GetSchedule(_ context.Context, req providers.GetScheduleRequest) ([]entities.ScheduleSlot, error) {
	length := 30
	if req.VisitTypeID != "" {
		// Scoped requests mirror the visit type's cadence with a fixed hour length
		length = 60
	}

	slots := make([]entities.ScheduleSlot, 0, 4)
	start := time.Date(2000, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		at := start.Add(time.Duration(i*length) * time.Minute)
		slots = append(slots, entities.ScheduleSlot{
			StartTime:         at.Format("3:04 PM"),
			LengthInMinutes:   length,
			AvailableOpenings: 1,
		})
	}

	return slots, nil
}

// FindAppointments returns a small static payload shaped like the EHR's response
func (m *MockAdapter) FindAppointments(_ context.Context, start, end time.Time) (json.RawMessage, error) {
	payload := fmt.Sprintf(`{"appointments":[],"startTime":%q,"endTime":%q}`,
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	return json.RawMessage(payload), nil
}

package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/carebridge/availability-sync/internal/domain/entities"
	"github.com/carebridge/availability-sync/internal/domain/providers"
	apperrors "github.com/carebridge/availability-sync/pkg/errors"
)

// EhrAdapter implements SlotSource against the EHR's scheduling REST API
type EhrAdapter struct {
	apiKey  string
	client  *http.Client
	baseURL string
}

// NewEhrAdapter creates a new EHR scheduling adapter
func NewEhrAdapter(baseURL, apiKey string, timeout time.Duration) providers.SlotSource {
	return &EhrAdapter{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// The EHR reports slot fields as strings, e.g. startTime "8:30 AM",
// length "30", availableOpenings "1".
type scheduleSlotPayload struct {
	StartTime             string `json:"startTime"`
	Length                string `json:"length"`
	AvailableOpenings     string `json:"availableOpenings"`
	HeldTimeReason        string `json:"heldTimeReason"`
	UnavailableTimeReason string `json:"unavailableTimeReason"`
}

type getSchedulePayload struct {
	ScheduleSlots []scheduleSlotPayload `json:"scheduleSlots"`
}

// GetSchedule returns a provider's raw schedule slots for one department and date
func (a *EhrAdapter) GetSchedule(ctx context.Context, req providers.GetScheduleRequest) ([]entities.ScheduleSlot, error) {
	params := url.Values{}
	params.Set("date", req.Date.Format("2006-01-02"))
	params.Set("providerID", req.ProviderID)
	params.Set("providerIDType", req.ProviderIDType)
	params.Set("departmentID", req.DepartmentID)
	params.Set("departmentIDType", req.DepartmentIDType)
	params.Set("userID", req.UserID)
	params.Set("userIDType", req.UserIDType)
	if req.VisitTypeID != "" {
		params.Set("visitTypeID", req.VisitTypeID)
		params.Set("visitTypeIDType", req.VisitTypeIDType)
	}

	endpoint := fmt.Sprintf("%s/api/v1/schedule?%s", a.baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to create schedule request", err)
	}
	a.addHeaders(httpReq)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewExternalError(fmt.Sprintf("schedule call failed for %s", endpoint), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("schedule call for %s returned status %d", endpoint, resp.StatusCode), nil)
	}

	var payload getSchedulePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewExternalError(fmt.Sprintf("malformed schedule payload for %s", endpoint), err)
	}

	slots := make([]entities.ScheduleSlot, 0, len(payload.ScheduleSlots))
	for _, item := range payload.ScheduleSlots {
		length, err := strconv.Atoi(item.Length)
		if err != nil {
			return nil, apperrors.NewExternalError(
				fmt.Sprintf("malformed slot length %q for %s", item.Length, endpoint), err)
		}
		openings, err := strconv.Atoi(item.AvailableOpenings)
		if err != nil {
			return nil, apperrors.NewExternalError(
				fmt.Sprintf("malformed slot openings %q for %s", item.AvailableOpenings, endpoint), err)
		}

		slots = append(slots, entities.ScheduleSlot{
			StartTime:             item.StartTime,
			LengthInMinutes:       length,
			AvailableOpenings:     openings,
			HeldTimeReason:        item.HeldTimeReason,
			UnavailableTimeReason: item.UnavailableTimeReason,
		})
	}

	return slots, nil
}

// FindAppointments returns the EHR's open-slot payload for a wide time window,
// kept verbatim for caching
func (a *EhrAdapter) FindAppointments(ctx context.Context, start, end time.Time) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("startTime", start.UTC().Format(time.RFC3339))
	params.Set("endTime", end.UTC().Format(time.RFC3339))

	endpoint := fmt.Sprintf("%s/api/v1/appointments/find?%s", a.baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to create appointment find request", err)
	}
	a.addHeaders(httpReq)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewExternalError(fmt.Sprintf("appointment find call failed for %s", endpoint), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("appointment find call for %s returned status %d", endpoint, resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewExternalError(fmt.Sprintf("failed to read appointment find payload for %s", endpoint), err)
	}
	if !json.Valid(body) {
		return nil, apperrors.NewExternalError(fmt.Sprintf("malformed appointment find payload for %s", endpoint), nil)
	}

	return json.RawMessage(body), nil
}

func (a *EhrAdapter) addHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.apiKey))
	req.Header.Set("Accept", "application/json")
}

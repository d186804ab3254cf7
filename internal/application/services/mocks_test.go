package services_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/carebridge/availability-sync/internal/domain/entities"
	"github.com/carebridge/availability-sync/internal/domain/providers"
	"github.com/carebridge/availability-sync/internal/domain/repositories"
)

// Mocks shared across the service tests

type MockSlotSource struct {
	mock.Mock
}

func (m *MockSlotSource) GetSchedule(ctx context.Context, req providers.GetScheduleRequest) ([]entities.ScheduleSlot, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ScheduleSlot), args.Error(1)
}

func (m *MockSlotSource) FindAppointments(ctx context.Context, start, end time.Time) (json.RawMessage, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type MockProviderRepository struct {
	mock.Mock
}

func (m *MockProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Provider), args.Error(1)
}

func (m *MockProviderRepository) ListActiveByInstitution(ctx context.Context, institutionID string) ([]*entities.Provider, error) {
	args := m.Called(ctx, institutionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Provider), args.Error(1)
}

type MockInstitutionRepository struct {
	mock.Mock
}

func (m *MockInstitutionRepository) GetByID(ctx context.Context, id string) (*entities.Institution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Institution), args.Error(1)
}

func (m *MockInstitutionRepository) ListWithActiveProviders(ctx context.Context) ([]*entities.Institution, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Institution), args.Error(1)
}

func (m *MockInstitutionRepository) ListWideWindowSyncEnabled(ctx context.Context) ([]*entities.Institution, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Institution), args.Error(1)
}

type MockAppointmentTypeRepository struct {
	mock.Mock
}

func (m *MockAppointmentTypeRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*entities.AppointmentType, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AppointmentType), args.Error(1)
}

type MockDepartmentRepository struct {
	mock.Mock
}

func (m *MockDepartmentRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*entities.EhrDepartment, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.EhrDepartment), args.Error(1)
}

// MockAvailabilityRepository records deletes and inserts. InTransaction runs
// fn against the mock itself and counts the call.
type MockAvailabilityRepository struct {
	mock.Mock
}

func (m *MockAvailabilityRepository) DeleteDay(ctx context.Context, providerID uuid.UUID, date time.Time) error {
	args := m.Called(ctx, providerID, date)
	return args.Error(0)
}

func (m *MockAvailabilityRepository) DeleteBetween(ctx context.Context, providerID uuid.UUID, after, through time.Time) error {
	args := m.Called(ctx, providerID, after, through)
	return args.Error(0)
}

func (m *MockAvailabilityRepository) InsertRows(ctx context.Context, rows []entities.AvailabilityRow) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockAvailabilityRepository) InTransaction(ctx context.Context, fn func(repo repositories.AvailabilityRepository) error) error {
	args := m.Called(ctx)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(m)
}

type MockScheduleCacheRepository struct {
	mock.Mock
}

func (m *MockScheduleCacheRepository) Get(ctx context.Context, institutionID string, date time.Time) (*entities.ScheduleCacheEntry, error) {
	args := m.Called(ctx, institutionID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ScheduleCacheEntry), args.Error(1)
}

func (m *MockScheduleCacheRepository) Upsert(ctx context.Context, entry *entities.ScheduleCacheEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockAdvisoryLocker runs fn whenever the lock is reported free
type MockAdvisoryLocker struct {
	mock.Mock
}

func (m *MockAdvisoryLocker) TryWithLock(ctx context.Context, name string, fn func(ctx context.Context) error) (bool, error) {
	args := m.Called(ctx, name)
	if args.Bool(0) {
		return true, fn(ctx)
	}
	return false, args.Error(1)
}

package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/availability-sync/internal/domain/entities"
)

// AvailabilityRepository defines the durable availability store. Rows are
// created and destroyed only by the sync engine; booking flows read them.
type AvailabilityRepository interface {
	// DeleteDay deletes every availability row for a provider whose
	// timestamp falls on the given date
	DeleteDay(ctx context.Context, providerID uuid.UUID, date time.Time) error

	// DeleteBetween deletes a provider's availability rows with
	// dateTime > after AND dateTime <= through
	DeleteBetween(ctx context.Context, providerID uuid.UUID, after, through time.Time) error

	// InsertRows batch-inserts availability rows
	InsertRows(ctx context.Context, rows []entities.AvailabilityRow) error

	// InTransaction runs fn against a transaction-bound copy of the
	// repository; the transaction commits when fn returns nil and rolls
	// back otherwise
	InTransaction(ctx context.Context, fn func(repo AvailabilityRepository) error) error
}

// ScheduleCacheRepository defines the durable wide-window response cache
type ScheduleCacheRepository interface {
	// Get retrieves a cache entry, or nil when no entry exists for the key
	Get(ctx context.Context, institutionID string, date time.Time) (*entities.ScheduleCacheEntry, error)

	// Upsert inserts or replaces the cache entry for its (institution, date) key
	Upsert(ctx context.Context, entry *entities.ScheduleCacheEntry) error
}

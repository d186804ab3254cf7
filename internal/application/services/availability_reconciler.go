package services

import (
	"context"
	"time"

	"github.com/carebridge/availability-sync/internal/domain/entities"
	"github.com/carebridge/availability-sync/internal/domain/repositories"
	"github.com/carebridge/availability-sync/internal/infrastructure/observability"
)

// CommitPlan describes the exact writes that reconcile one built day into
// the store
type CommitPlan struct {
	// SkipDay means the day is in the past and nothing may be written
	SkipDay bool

	// DeleteWholeDay replaces every stored row for the date; otherwise only
	// rows in (DeleteAfter, DeleteThrough] are replaced
	DeleteWholeDay bool
	DeleteAfter    time.Time
	DeleteThrough  time.Time

	// Rows are the rows to insert after the deletion
	Rows []entities.AvailabilityRow
}

// AvailabilityReconciler commits built days into the availability store.
// Stored rows at or before the current moment are never touched, so booking
// history stays intact.
type AvailabilityReconciler struct {
	repo repositories.AvailabilityRepository
	now  func() time.Time
}

// NewAvailabilityReconciler creates a new availability reconciler
func NewAvailabilityReconciler(repo repositories.AvailabilityRepository) *AvailabilityReconciler {
	return NewAvailabilityReconcilerWithClock(repo, time.Now)
}

// NewAvailabilityReconcilerWithClock creates a reconciler that reads the
// current moment from now, so the commit-time clock can be pinned
func NewAvailabilityReconcilerWithClock(repo repositories.AvailabilityRepository, now func() time.Time) *AvailabilityReconciler {
	return &AvailabilityReconciler{
		repo: repo,
		now:  now,
	}
}

// PlanCommit decides what to delete and what to insert for a built day.
// Past days are skipped, the current day is reconciled only from now to
// midnight, and future days are replaced wholesale.
func PlanCommit(day *entities.AvailabilityDay, now time.Time) CommitPlan {
	nowInZone := now.In(day.TimeZone)
	today := time.Date(nowInZone.Year(), nowInZone.Month(), nowInZone.Day(), 0, 0, 0, 0, day.TimeZone)
	date := time.Date(day.Date.Year(), day.Date.Month(), day.Date.Day(), 0, 0, 0, 0, day.TimeZone)

	if date.Before(today) {
		return CommitPlan{SkipDay: true}
	}

	if date.Equal(today) {
		// Reconcile the remainder of the day only. Slots already in the
		// past stay untouched and freshly built rows in the past are
		// dropped so they cannot resurrect as bookable.
		endOfDay := today.AddDate(0, 0, 1).Add(-time.Nanosecond)
		rows := make([]entities.AvailabilityRow, 0, len(day.Rows))
		for _, row := range day.Rows {
			if row.DateTime.Before(nowInZone) {
				continue
			}
			rows = append(rows, row)
		}
		return CommitPlan{
			DeleteAfter:   nowInZone,
			DeleteThrough: endOfDay,
			Rows:          rows,
		}
	}

	return CommitPlan{
		DeleteWholeDay: true,
		Rows:           day.Rows,
	}
}

// Commit applies a built day to the store. With inOwnTransaction the delete
// and insert run atomically in a dedicated transaction; otherwise they run
// on the ambient repository.
func (r *AvailabilityReconciler) Commit(ctx context.Context, day *entities.AvailabilityDay, inOwnTransaction bool) error {
	logger := observability.LoggerFromContext(ctx)

	plan := PlanCommit(day, r.now())
	if plan.SkipDay {
		logger.Debug().
			Str("provider_id", day.ProviderID.String()).
			Str("date", day.Date.Format("2006-01-02")).
			Msg("Skipping availability commit for past date")
		return nil
	}

	apply := func(repo repositories.AvailabilityRepository) error {
		if plan.DeleteWholeDay {
			if err := repo.DeleteDay(ctx, day.ProviderID, day.Date); err != nil {
				return err
			}
		} else {
			if err := repo.DeleteBetween(ctx, day.ProviderID, plan.DeleteAfter, plan.DeleteThrough); err != nil {
				return err
			}
		}
		if len(plan.Rows) == 0 {
			return nil
		}
		return repo.InsertRows(ctx, plan.Rows)
	}

	if inOwnTransaction {
		return r.repo.InTransaction(ctx, apply)
	}
	return apply(r.repo)
}

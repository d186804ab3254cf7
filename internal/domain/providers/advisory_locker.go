package providers

import (
	"context"
)

// AdvisoryLocker provides named, cluster-wide, non-blocking mutual exclusion.
// Lock contention is a normal outcome, not an error.
type AdvisoryLocker interface {
	// TryWithLock runs fn only if the named lock is currently free
	// cluster-wide. Returns false without running fn when the lock is held
	// elsewhere; otherwise runs fn, releases the lock and returns true along
	// with fn's error.
	TryWithLock(ctx context.Context, name string, fn func(ctx context.Context) error) (bool, error)
}

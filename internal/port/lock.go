package port

import "context"

// Locker serialises index refreshes.
type Locker interface {
	// Acquire blocks until the lock is held or ctx is done. The returned
	// function releases it.
	Acquire(ctx context.Context) (release func(), err error)
}

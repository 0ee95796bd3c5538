package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"repoindex/internal/domain"
)

const lockRetryDelay = 200 * time.Millisecond

// IndexLock serialises index refreshes within the process and across
// processes sharing the same index directory.
type IndexLock struct {
	mu      sync.Mutex
	path    string
	timeout time.Duration
}

func NewIndexLock(path string, timeout time.Duration) *IndexLock {
	return &IndexLock{path: path, timeout: timeout}
}

// Acquire blocks until the lock is held, the timeout elapses or ctx is done.
// The returned function releases the lock.
func (l *IndexLock) Acquire(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	if !l.mu.TryLock() {
		return nil, domain.ErrLocked
	}

	lockCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	fl := flock.New(l.path)
	locked, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		l.mu.Unlock()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil && lockCtx.Err() == nil {
			return nil, fmt.Errorf("cannot acquire index lock %s: %w", l.path, err)
		}
		return nil, fmt.Errorf("%w (lock: %s)", domain.ErrLocked, l.path)
	}

	return func() {
		_ = fl.Unlock()
		l.mu.Unlock()
	}, nil
}

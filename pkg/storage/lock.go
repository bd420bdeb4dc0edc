package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	errs "igcomments/pkg/errors"
)

// Lock is an exclusive advisory lock guarding one stored collection
// across processes
type Lock struct {
	flock   *flock.Flock
	timeout time.Duration
}

// NewLock creates a lock on target+".lock"
func NewLock(target string, timeout time.Duration) *Lock {
	return &Lock{
		flock:   flock.New(target + ".lock"),
		timeout: timeout,
	}
}

// Path returns the lock file path
func (l *Lock) Path() string {
	return l.flock.Path()
}

// Acquire blocks until the lock is held, the timeout passes, or ctx is done
func (l *Lock) Acquire(ctx context.Context) error {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	locked, err := l.flock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeLock, err, fmt.Sprintf("acquire %s", l.Path()))
	}
	if !locked {
		return errs.New(errs.ErrorTypeLock, 0, fmt.Sprintf("%s is held by another process", l.Path()))
	}
	return nil
}

// Release drops the lock
func (l *Lock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return errs.Wrap(errs.ErrorTypeLock, err, fmt.Sprintf("release %s", l.Path()))
	}
	return nil
}

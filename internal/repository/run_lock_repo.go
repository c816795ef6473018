package repository

import (
	"context"
	"time"
)

// RunLockRepository guards against concurrent crawls across processes.
type RunLockRepository interface {
	// Acquire takes the lock for ttl. It reports false if another holder owns it.
	Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error)
	// Release drops the lock if owner still holds it.
	Release(ctx context.Context, owner string) error
}

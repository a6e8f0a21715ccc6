package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a lock.
type UnlockFunc func(ctx context.Context) error

// EngineLocker guards the "one live engine session" invariant.
// Keys are typically the resolved rules file path.
type EngineLocker interface {
	// Lock acquires the lock for key. It blocks until the lock is acquired or the
	// context is done. The TTL bounds how long a crashed holder can keep it.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

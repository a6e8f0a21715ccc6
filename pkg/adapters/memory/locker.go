package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/tesoro/pkg/ports"
)

// Locker implements ports.EngineLocker within a single process.
// Safe for concurrent use. TTLs are ignored: a holder cannot outlive the process.
type Locker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

// NewLocker creates a new in-memory locker.
func NewLocker() *Locker {
	return &Locker{
		held: make(map[string]chan struct{}),
	}
}

// Lock blocks until key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	for {
		l.mu.Lock()
		wait, busy := l.held[key]
		if !busy {
			released := make(chan struct{})
			l.held[key] = released
			l.mu.Unlock()

			var once sync.Once
			return func(context.Context) error {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(released)
				})
				return nil
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

var _ ports.EngineLocker = (*Locker)(nil)

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/tesoro/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces engine lock keys.
const DefaultPrefix = "tesoro:engine:"

// ErrLockLost is returned by an unlock whose key expired or was taken over.
var ErrLockLost = errors.New("engine lock was lost before release")

// releaseScript deletes the key only when it still carries our token.
var releaseScript = backend.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Locker implements ports.EngineLocker using Redis, so that engine sessions on
// different machines sharing a rules file still respect "one live engine".
type Locker struct {
	client *backend.Client
	prefix string
	poll   time.Duration
}

// Option configures the Locker.
type Option func(*Locker)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(l *Locker) {
		l.prefix = prefix
	}
}

// WithPollInterval sets how often a blocked Lock retries.
func WithPollInterval(d time.Duration) Option {
	return func(l *Locker) {
		l.poll = d
	}
}

// NewLocker creates a new Redis locker from an existing client.
func NewLocker(client *backend.Client, opts ...Option) *Locker {
	l := &Locker{
		client: client,
		prefix: DefaultPrefix,
		poll:   100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// New creates a Redis locker connected to address.
func New(address, password string, db int, opts ...Option) *Locker {
	return NewLocker(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// Ping checks connectivity.
func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Lock acquires the engine lock for key using SET NX PX, polling until it
// succeeds or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis error acquiring lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				n, err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Int()
				if err != nil {
					return fmt.Errorf("redis error releasing lock: %w", err)
				}
				if n == 0 {
					return ErrLockLost
				}
				return nil
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ ports.EngineLocker = (*Locker)(nil)

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/tesoro"
	"github.com/aretw0/tesoro/internal/config"
	"github.com/aretw0/tesoro/pkg/adapters/memory"
	"github.com/aretw0/tesoro/pkg/adapters/redis"
	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/aretw0/tesoro/pkg/ports"
)

// lockWait bounds how long the CLI waits for an engine held by someone else.
const lockWait = 2 * time.Second

// OpenOptions tunes how the CLI opens a client.
type OpenOptions struct {
	Logger *slog.Logger
	Hooks  domain.LifecycleHooks
	// Locker overrides the locker chosen from the Redis settings.
	Locker ports.EngineLocker
	Sync   bool
}

// OpenClient builds a client from configuration. When a Redis address is set
// the engine lock is shared across machines; otherwise it is process-local.
func OpenClient(ctx context.Context, cfg config.Config, o OpenOptions) (*tesoro.Client, error) {
	locker := o.Locker
	if locker == nil {
		var err error
		if locker, err = newLocker(ctx, cfg.Redis); err != nil {
			return nil, err
		}
	}

	hooks := o.Hooks
	if o.Logger != nil {
		hooks = hooks.Merge(createDebugHooks(o.Logger))
	}

	opts := []tesoro.Option{
		tesoro.WithLifecycleHooks(hooks),
		tesoro.WithLocker(locker, lockWait),
		tesoro.WithOneShot(cfg.Transport == config.TransportOneShot),
		tesoro.WithVocabulary(cfg.Vocabulary),
		tesoro.WithInitialSync(o.Sync),
	}
	if o.Logger != nil {
		opts = append(opts, tesoro.WithLogger(o.Logger))
	}
	return tesoro.Open(ctx, cfg.Engine, opts...)
}

func newLocker(ctx context.Context, cfg config.RedisConfig) (ports.EngineLocker, error) {
	if cfg.Addr == "" {
		return memory.NewLocker(), nil
	}

	var opts []redis.Option
	if cfg.Prefix != "" {
		opts = append(opts, redis.WithPrefix(cfg.Prefix))
	}
	locker := redis.New(cfg.Addr, cfg.Password, cfg.DB, opts...)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := locker.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("redis %s unreachable: %w", cfg.Addr, err)
	}
	return locker, nil
}

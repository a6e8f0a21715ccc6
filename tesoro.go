package tesoro

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/tesoro/internal/logging"
	"github.com/aretw0/tesoro/pkg/adapters/oneshot"
	"github.com/aretw0/tesoro/pkg/adapters/process"
	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/aretw0/tesoro/pkg/game"
	"github.com/aretw0/tesoro/pkg/ports"
)

// Version is the client release, overridden at build time via -ldflags.
var Version = "dev"

// Client is the high-level entry point: a game facade bound to a running engine.
// All facade verbs and queries are available through the embedded Game.
type Client struct {
	*game.Game

	transport ports.Transport
	session   *process.Session // nil for the one-shot transport
	logger    *slog.Logger
}

// options collects Open settings.
type options struct {
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	locker   ports.EngineLocker
	lockWait time.Duration
	oneShot  bool
	vocab    *game.Vocabulary
	sync     bool
}

// Option defines a functional option for Open.
type Option func(*options)

// WithLogger sets a structured logger shared by the transport and the facade.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = o.hooks.Merge(hooks)
	}
}

// WithLocker guards the engine so only one live session exists per rules file.
// wait bounds how long Open waits for a busy lock; zero waits for ctx.
func WithLocker(locker ports.EngineLocker, wait time.Duration) Option {
	return func(o *options) {
		o.locker = locker
		o.lockWait = wait
	}
}

// WithOneShot starts a fresh engine process per command instead of keeping a
// persistent session.
func WithOneShot(enabled bool) Option {
	return func(o *options) {
		o.oneShot = enabled
	}
}

// WithVocabulary overrides engine predicate names.
func WithVocabulary(v game.Vocabulary) Option {
	return func(o *options) {
		o.vocab = &v
	}
}

// WithInitialSync queries the engine for location and inventory right after
// opening, so the cached state starts in step with a pre-existing game.
func WithInitialSync(enabled bool) Option {
	return func(o *options) {
		o.sync = enabled
	}
}

// Open starts the engine described by cfg and returns a ready Client.
// The caller owns the Client and must Close it.
func Open(ctx context.Context, cfg process.Config, opts ...Option) (*Client, error) {
	o := &options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	transport, session, err := openTransport(ctx, cfg, o)
	if err != nil {
		return nil, err
	}

	gameOpts := []game.Option{game.WithLogger(o.logger)}
	if o.vocab != nil {
		gameOpts = append(gameOpts, game.WithVocabulary(*o.vocab))
	}

	c := &Client{
		Game:      game.New(transport, gameOpts...),
		transport: transport,
		session:   session,
		logger:    o.logger,
	}

	if o.sync {
		if err := c.Sync(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func openTransport(ctx context.Context, cfg process.Config, o *options) (ports.Transport, *process.Session, error) {
	if o.oneShot {
		t, err := oneshot.New(cfg,
			oneshot.WithLogger(o.logger),
			oneshot.WithLifecycleHooks(o.hooks),
		)
		return t, nil, err
	}

	sessOpts := []process.Option{
		process.WithLogger(o.logger),
		process.WithLifecycleHooks(o.hooks),
	}
	if o.locker != nil {
		sessOpts = append(sessOpts, process.WithLocker(o.locker), process.WithLockWait(o.lockWait))
	}
	s, err := process.Start(ctx, cfg, sessOpts...)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}

// Reload consults the rules file again. The one-shot transport reads the file
// on every command, so there is nothing to do.
func (c *Client) Reload(ctx context.Context) error {
	if c.session == nil {
		return nil
	}
	return c.session.Reload(ctx)
}

// Alive reports whether commands can currently reach the engine.
func (c *Client) Alive() bool {
	if c.session == nil {
		return true
	}
	return c.session.Alive()
}

// PID returns the persistent engine process id, or 0.
func (c *Client) PID() int {
	if c.session == nil {
		return 0
	}
	return c.session.PID()
}

// Shutdown halts the engine, killing it after the grace period. It is idempotent.
func (c *Client) Shutdown(ctx context.Context) error {
	if c.session != nil {
		return c.session.Shutdown(ctx)
	}
	return c.transport.Close()
}

// Close is Shutdown with a background context.
func (c *Client) Close() error {
	return c.Shutdown(context.Background())
}

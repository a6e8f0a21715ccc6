package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/tesoro/internal/logging"
	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/aretw0/tesoro/pkg/ports"
	"github.com/aretw0/tesoro/pkg/protocol"
	"github.com/aretw0/tesoro/pkg/reply"
	"github.com/google/uuid"
)

// errResync is returned when stale output from a timed-out request could not be drained.
var errResync = errors.New("stale output from a previous request did not finish")

// Session is a persistent conversation with one engine process.
// It is safe for concurrent use; requests are served one at a time.
type Session struct {
	cfg      Config
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	locker   ports.EngineLocker
	lockWait time.Duration

	// mu is held for the whole request: write, read to sentinel, release.
	mu sync.Mutex
	// pending counts sentinels still owed by requests that timed out.
	pending int

	state  sync.Mutex // guards proc and closed
	proc   *engineProcess
	closed bool

	unlock    ports.UnlockFunc
	closeOnce sync.Once
}

// Option configures the Session.
type Option func(*Session)

// WithLogger configures a logger for the Session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks fired around every request.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = hooks
	}
}

// WithLocker guards the engine so only one live session exists per rules file.
func WithLocker(locker ports.EngineLocker) Option {
	return func(s *Session) {
		s.locker = locker
	}
}

// WithLockWait bounds how long Start waits for a busy engine lock.
// Zero waits until the context passed to Start is done.
func WithLockWait(d time.Duration) Option {
	return func(s *Session) {
		s.lockWait = d
	}
}

// Start launches the engine, consults the rules file and returns a ready session.
// It fails if the executable or rules file is missing, or if loading the rules
// reports an error.
func Start(ctx context.Context, cfg Config, opts ...Option) (*Session, error) {
	s := &Session{
		cfg:    cfg.WithDefaults(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.cfg.Validate(); err != nil {
		return nil, domain.Unavailable("start", err)
	}

	if s.locker != nil {
		lockCtx := ctx
		if s.lockWait > 0 {
			var cancel context.CancelFunc
			lockCtx, cancel = context.WithTimeout(ctx, s.lockWait)
			defer cancel()
		}
		unlock, err := s.locker.Lock(lockCtx, s.cfg.LockKey(), s.cfg.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEngineLocked, err)
		}
		s.unlock = unlock
	}

	if err := s.launch(ctx); err != nil {
		s.releaseLock(ctx)
		return nil, err
	}

	s.logger.Info("Engine session started",
		"command", s.cfg.Command,
		"rules", s.cfg.RulesFile,
		"pid", s.PID(),
	)
	return s, nil
}

// launch spawns a fresh process and loads the rules into it.
func (s *Session) launch(ctx context.Context) error {
	p, err := spawn(s.cfg)
	if err != nil {
		return err
	}
	if err := s.load(ctx, p); err != nil {
		p.kill()
		return err
	}

	s.state.Lock()
	if s.closed {
		s.state.Unlock()
		p.kill()
		return domain.Unavailable("start", errors.New("session closed"))
	}
	s.proc = p
	s.state.Unlock()
	s.pending = 0
	return nil
}

// load consults the rules file on p. A missing RulesFile means nothing to load.
func (s *Session) load(ctx context.Context, p *engineProcess) error {
	if s.cfg.RulesFile == "" {
		return nil
	}
	raw, err := s.exchange(ctx, p, protocol.LoadDirective(s.cfg.RulesFile))
	if err != nil {
		return err
	}
	out := reply.ClassifyReply(raw)
	switch out.Status {
	case domain.StatusTimeout:
		return &domain.EngineError{Op: "load rules", Err: domain.ErrEngineTimeout}
	case domain.StatusError:
		return &domain.EngineError{Op: "load rules", Err: errors.New(out.Payload)}
	}
	return nil
}

// Send writes one command and waits for its reply.
// A reply that misses the time budget is returned with TimedOut set and a nil
// error. Errors are reserved for an unreachable engine (domain.ErrEngineUnavailable)
// and context cancellation.
func (s *Session) Send(ctx context.Context, cmd string) (domain.RawReply, error) {
	cmd = protocol.Normalize(cmd)

	s.mu.Lock()
	defer s.mu.Unlock()

	event := &domain.CommandEvent{
		Timestamp: time.Now(),
		Type:      domain.EventSend,
		RequestID: uuid.NewString(),
		Command:   cmd,
		Verb:      reply.Verb(cmd),
	}
	if s.hooks.OnSend != nil {
		s.hooks.OnSend(ctx, event)
	}

	raw, err := s.send(ctx, cmd)

	done := *event
	done.Type = domain.EventReply
	done.Elapsed = raw.Elapsed
	done.Err = err
	if err != nil {
		done.Status = domain.StatusUnavailable
	} else {
		done.Status = reply.ClassifyReply(raw).Status
	}
	if s.hooks.OnReply != nil {
		s.hooks.OnReply(ctx, &done)
	}

	s.logger.Debug("Engine request",
		"request_id", event.RequestID,
		"command", cmd,
		"status", done.Status,
		"elapsed", raw.Elapsed,
		"err", err,
	)
	return raw, err
}

// send runs with mu held.
func (s *Session) send(ctx context.Context, cmd string) (domain.RawReply, error) {
	p, err := s.current()
	if errors.Is(err, errStreamBroken) {
		p, err = s.recover(ctx, "send", s.process(), err)
	}
	if err != nil {
		return domain.RawReply{}, err
	}

	if err := s.resync(ctx, p); err != nil {
		if !errors.Is(err, errResync) && !errors.Is(err, errStreamBroken) {
			return domain.RawReply{}, err
		}
		p, err = s.recover(ctx, "resync", p, err)
		if err != nil {
			return domain.RawReply{}, err
		}
	}

	raw, err := s.exchange(ctx, p, cmd)
	if errors.Is(err, errStreamBroken) {
		// Replace the engine for the next request; this one has already failed.
		if _, rerr := s.recover(ctx, "read", p, err); rerr != nil && s.cfg.RestartOnTimeout {
			s.logger.Error("Engine restart failed", "err", rerr)
		}
	}
	return raw, err
}

// current returns the live process or an unavailable error.
func (s *Session) current() (*engineProcess, error) {
	s.state.Lock()
	defer s.state.Unlock()

	if s.closed {
		return nil, domain.Unavailable("send", errors.New("session closed"))
	}
	if s.proc == nil || !s.proc.usable() {
		var cause error
		if s.proc != nil {
			cause = s.proc.exitError()
		}
		return nil, domain.Unavailable("send", cause)
	}
	return s.proc, nil
}

// process returns the current process, live or not.
func (s *Session) process() *engineProcess {
	s.state.Lock()
	defer s.state.Unlock()
	return s.proc
}

// recover handles an engine whose output can no longer be trusted: stale
// output that did not drain, or a stream that broke. It restarts the engine
// if configured and otherwise kills it so nothing stale is read as a reply.
func (s *Session) recover(ctx context.Context, op string, p *engineProcess, cause error) (*engineProcess, error) {
	s.logger.Warn("Engine out of sync",
		"op", op,
		"pending", s.pending,
		"restart", s.cfg.RestartOnTimeout,
		"err", cause,
	)

	s.state.Lock()
	if s.proc == p {
		s.proc = nil
	}
	s.state.Unlock()
	if p != nil {
		p.kill()
	}

	if !s.cfg.RestartOnTimeout {
		return nil, domain.Unavailable(op, cause)
	}
	if err := s.launch(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("Engine restarted", "pid", s.PID())
	return s.current()
}

// exchange writes a framed command to p and reads its reply. mu must be held.
func (s *Session) exchange(ctx context.Context, p *engineProcess, cmd string) (domain.RawReply, error) {
	start := time.Now()

	if _, err := io.WriteString(p.stdin, protocol.Frame(cmd)); err != nil {
		return domain.RawReply{Elapsed: time.Since(start)}, domain.Unavailable("write", err)
	}

	timer := time.NewTimer(s.cfg.Timeout)
	defer timer.Stop()

	var (
		collector protocol.Collector
		stderr    []string
		errLines  = p.stderr
	)

	result := func(timedOut bool) domain.RawReply {
		return domain.RawReply{
			Output:   collector.String(),
			Stderr:   strings.TrimSpace(strings.Join(stderr, "\n")),
			TimedOut: timedOut,
			Elapsed:  time.Since(start),
		}
	}

	for {
		select {
		case line, ok := <-p.stdout:
			if !ok {
				return result(false), domain.Unavailable("read", p.exitError())
			}
			if collector.Add(line) {
				stderr = drainLines(errLines, stderr)
				return result(false), nil
			}
		case line, ok := <-errLines:
			if !ok {
				errLines = nil
				continue
			}
			stderr = append(stderr, line)
		case <-timer.C:
			s.pending++
			return result(true), nil
		case <-ctx.Done():
			s.pending++
			return result(false), ctx.Err()
		}
	}
}

// resync discards output owed by timed-out requests and anything else already
// buffered between replies. mu must be held.
func (s *Session) resync(ctx context.Context, p *engineProcess) error {
	if s.pending > 0 {
		s.logger.Debug("Draining stale engine output", "pending", s.pending)

		timer := time.NewTimer(s.cfg.Timeout)
		defer timer.Stop()

		errLines := p.stderr
		for s.pending > 0 {
			select {
			case line, ok := <-p.stdout:
				if !ok {
					return domain.Unavailable("resync", p.exitError())
				}
				if protocol.IsSentinel(line) {
					s.pending--
				}
			case _, ok := <-errLines:
				if !ok {
					errLines = nil
				}
			case <-timer.C:
				return errResync
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	for {
		select {
		case _, ok := <-p.stdout:
			if !ok {
				return domain.Unavailable("resync", p.exitError())
			}
		default:
			_ = drainLines(p.stderr, nil)
			return nil
		}
	}
}

// drainLines appends every line currently queued on ch without blocking.
func drainLines(ch <-chan string, into []string) []string {
	if ch == nil {
		return into
	}
	for {
		select {
		case line, ok := <-ch:
			if !ok {
				return into
			}
			into = append(into, line)
		default:
			return into
		}
	}
}

// Reload consults the rules file again, e.g. after it changed on disk.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.current()
	if err != nil {
		return err
	}
	if err := s.resync(ctx, p); err != nil {
		return domain.Unavailable("reload", err)
	}
	if err := s.load(ctx, p); err != nil {
		return err
	}
	s.logger.Info("Rules reloaded", "rules", s.cfg.RulesFile)
	return nil
}

// Alive reports whether the engine process is running.
func (s *Session) Alive() bool {
	_, err := s.current()
	return err == nil
}

// PID returns the engine process id, or 0 when not running.
func (s *Session) PID() int {
	s.state.Lock()
	defer s.state.Unlock()
	if s.proc == nil {
		return 0
	}
	return s.proc.pid()
}

// Config returns the effective configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Shutdown sends the halt directive, waits for the grace period and kills the
// engine if it is still running. It is idempotent and never fails because the
// engine already exited.
func (s *Session) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.state.Lock()
		s.closed = true
		p := s.proc
		s.proc = nil
		s.state.Unlock()

		if p != nil {
			if killed := p.stop(s.cfg.GracePeriod); killed {
				s.logger.Warn("Engine did not halt in time, killed", "grace_period", s.cfg.GracePeriod)
			}
		}
		s.releaseLock(ctx)
		s.logger.Info("Engine session closed")
	})
	return nil
}

// Close satisfies ports.Transport.
func (s *Session) Close() error {
	return s.Shutdown(context.Background())
}

func (s *Session) releaseLock(ctx context.Context) {
	if s.unlock == nil {
		return
	}
	if err := s.unlock(ctx); err != nil {
		s.logger.Warn("Failed to release engine lock (will expire via TTL)", "err", err)
	}
	s.unlock = nil
}

var _ ports.Transport = (*Session)(nil)

package oneshot

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aretw0/tesoro/internal/logging"
	"github.com/aretw0/tesoro/pkg/adapters/process"
	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/aretw0/tesoro/pkg/ports"
	"github.com/aretw0/tesoro/pkg/protocol"
	"github.com/aretw0/tesoro/pkg/reply"
	"github.com/google/uuid"
)

// Transport executes each command in its own engine process.
type Transport struct {
	cfg    process.Config
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	closed atomic.Bool
}

// Option configures the Transport.
type Option func(*Transport)

// WithLogger configures a logger for the Transport.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks fired around every request.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(t *Transport) {
		t.hooks = hooks
	}
}

// New validates cfg and returns a Transport. No process is started until Send.
func New(cfg process.Config, opts ...Option) (*Transport, error) {
	t := &Transport{
		cfg:    cfg.WithDefaults(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.cfg.Validate(); err != nil {
		return nil, domain.Unavailable("start", err)
	}
	return t, nil
}

// Args returns the command line used to run cmd.
func (t *Transport) Args(cmd string) []string {
	args := append([]string{}, t.cfg.Args...)
	if t.cfg.RulesFile != "" {
		args = append(args, t.cfg.RulesFile)
	}
	return append(args, "-g", protocol.Goal(cmd), "-t", "halt")
}

// Send runs cmd in a new engine process and waits for it to finish or for the
// time budget to expire. A timed-out process is killed and the partial reply is
// returned with TimedOut set.
func (t *Transport) Send(ctx context.Context, cmd string) (domain.RawReply, error) {
	cmd = protocol.Normalize(cmd)

	event := &domain.CommandEvent{
		Timestamp: time.Now(),
		Type:      domain.EventSend,
		RequestID: uuid.NewString(),
		Command:   cmd,
		Verb:      reply.Verb(cmd),
	}
	if t.hooks.OnSend != nil {
		t.hooks.OnSend(ctx, event)
	}

	raw, err := t.run(ctx, cmd)

	done := *event
	done.Type = domain.EventReply
	done.Elapsed = raw.Elapsed
	done.Err = err
	if err != nil {
		done.Status = domain.StatusUnavailable
	} else {
		done.Status = reply.ClassifyReply(raw).Status
	}
	if t.hooks.OnReply != nil {
		t.hooks.OnReply(ctx, &done)
	}

	t.logger.Debug("Engine request",
		"request_id", event.RequestID,
		"command", cmd,
		"status", done.Status,
		"elapsed", raw.Elapsed,
		"err", err,
	)
	return raw, err
}

func (t *Transport) run(ctx context.Context, cmd string) (domain.RawReply, error) {
	start := time.Now()
	if t.closed.Load() {
		return domain.RawReply{}, domain.Unavailable("send", errors.New("transport closed"))
	}

	runCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	c := exec.CommandContext(runCtx, t.cfg.Command, t.Args(cmd)...)
	c.Dir = t.cfg.Dir
	c.Env = append(c.Environ(), t.cfg.Environment...)
	c.WaitDelay = t.cfg.GracePeriod

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	runErr := c.Run()

	var collector protocol.Collector
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		if collector.Add(scanner.Text()) {
			break
		}
	}

	raw := domain.RawReply{
		Output:  collector.String(),
		Stderr:  strings.TrimSpace(stderr.String()),
		Elapsed: time.Since(start),
	}

	switch {
	case collector.Done():
		return raw, nil
	case ctx.Err() != nil:
		return raw, ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		raw.TimedOut = true
		return raw, nil
	case runErr != nil:
		return raw, domain.Unavailable("run", runErr)
	default:
		return raw, domain.Unavailable("run", errors.New("engine exited without completing the reply"))
	}
}

// Close marks the transport closed. Later sends report the engine unavailable.
func (t *Transport) Close() error {
	t.closed.Store(true)
	return nil
}

var _ ports.Transport = (*Transport)(nil)

package process_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tesoro/internal/testutils"
	"github.com/aretw0/tesoro/pkg/adapters/memory"
	"github.com/aretw0/tesoro/pkg/adapters/process"
	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/aretw0/tesoro/pkg/ports/tests"
	"github.com/aretw0/tesoro/pkg/reply"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	testutils.RunFakeEngineIfRequested()
	os.Exit(m.Run())
}

func fakeConfig(t *testing.T, mode string) process.Config {
	t.Helper()
	exe, env := testutils.FakeEngineCommand(mode)
	return process.Config{
		Command:     exe,
		Environment: env,
		RulesFile:   testutils.WriteRules(t, "% reglas de prueba\n"),
		Timeout:     2 * time.Second,
		GracePeriod: 500 * time.Millisecond,
	}
}

func startFake(t *testing.T, cfg process.Config, opts ...process.Option) *process.Session {
	t.Helper()
	sess, err := process.Start(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Shutdown(context.Background()) })
	return sess
}

func TestSession_Contract(t *testing.T) {
	sess := startFake(t, fakeConfig(t, "interactive"))
	tests.TransportContractTest(t, sess)
}

func TestSession_StartFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing executable", func(t *testing.T) {
		cfg := fakeConfig(t, "interactive")
		cfg.Command = "definitely-not-an-engine-binary"
		_, err := process.Start(ctx, cfg)
		assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
	})

	t.Run("Missing rules file", func(t *testing.T) {
		cfg := fakeConfig(t, "interactive")
		cfg.RulesFile = cfg.RulesFile + ".missing"
		_, err := process.Start(ctx, cfg)
		assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
	})

	t.Run("Engine exits on startup", func(t *testing.T) {
		_, err := process.Start(ctx, fakeConfig(t, "crash"))
		assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
	})
}

func TestSession_StartWithoutRules(t *testing.T) {
	cfg := fakeConfig(t, "interactive")
	cfg.RulesFile = ""
	sess := startFake(t, cfg)

	raw, err := sess.Send(context.Background(), "echo(sin_reglas)")
	require.NoError(t, err)
	assert.Equal(t, "ok: sin_reglas", raw.Output)
}

func TestSession_StderrAheadOfOutput(t *testing.T) {
	sess := startFake(t, fakeConfig(t, "interactive"))

	raw, err := sess.Send(context.Background(), "stderr(Warning: cuidado)")
	require.NoError(t, err)
	assert.Equal(t, "ok: hecho", raw.Output)
	assert.Equal(t, "Warning: cuidado\nok: hecho", raw.Text())
}

func TestSession_TimeoutIsBounded(t *testing.T) {
	cfg := fakeConfig(t, "interactive")
	cfg.Timeout = 200 * time.Millisecond
	sess := startFake(t, cfg)

	start := time.Now()
	raw, err := sess.Send(context.Background(), "hang")
	elapsed := time.Since(start)

	require.NoError(t, err, "timeouts are values, not errors")
	assert.True(t, raw.TimedOut)
	assert.Equal(t, domain.StatusTimeout, reply.ClassifyReply(raw).Status)
	assert.GreaterOrEqual(t, elapsed, cfg.Timeout)
	assert.Less(t, elapsed, cfg.Timeout+time.Second, "Send must return shortly after the budget")
	assert.True(t, sess.Alive(), "the engine is not killed on timeout")
}

func TestSession_StaleOutputIsDrained(t *testing.T) {
	cfg := fakeConfig(t, "interactive")
	cfg.Timeout = 300 * time.Millisecond
	sess := startFake(t, cfg)
	ctx := context.Background()

	raw, err := sess.Send(ctx, "sleep(450)")
	require.NoError(t, err)
	require.True(t, raw.TimedOut)

	raw, err = sess.Send(ctx, "echo(fresco)")
	require.NoError(t, err)
	assert.False(t, raw.TimedOut)
	assert.Equal(t, "ok: fresco", raw.Output, "late output of the timed-out request must not leak")
}

func TestSession_UnrecoverableTimeout(t *testing.T) {
	ctx := context.Background()

	t.Run("Becomes unavailable", func(t *testing.T) {
		cfg := fakeConfig(t, "interactive")
		cfg.Timeout = 150 * time.Millisecond
		sess := startFake(t, cfg)

		raw, err := sess.Send(ctx, "hang")
		require.NoError(t, err)
		require.True(t, raw.TimedOut)

		_, err = sess.Send(ctx, "echo(x)")
		assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
		assert.False(t, sess.Alive())
	})

	t.Run("Restarts when configured", func(t *testing.T) {
		cfg := fakeConfig(t, "interactive")
		cfg.Timeout = 150 * time.Millisecond
		cfg.RestartOnTimeout = true
		sess := startFake(t, cfg)
		firstPID := sess.PID()

		raw, err := sess.Send(ctx, "hang")
		require.NoError(t, err)
		require.True(t, raw.TimedOut)

		raw, err = sess.Send(ctx, "echo(de_nuevo)")
		require.NoError(t, err)
		assert.Equal(t, "ok: de_nuevo", raw.Output)
		assert.NotEqual(t, firstPID, sess.PID())
	})
}

func TestSession_Serialization(t *testing.T) {
	sess := startFake(t, fakeConfig(t, "interactive"))
	ctx := context.Background()

	const callers = 12
	var wg sync.WaitGroup
	results := make([]string, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			raw, err := sess.Send(ctx, fmt.Sprintf("echo(%d)", n))
			assert.NoError(t, err)
			results[n] = raw.Output
		}(i)
	}
	wg.Wait()

	for i, out := range results {
		assert.Equal(t, fmt.Sprintf("ok: %d", i), out, "each caller gets its own reply")
	}

	raw, err := sess.Send(ctx, "overlaps")
	require.NoError(t, err)
	assert.Equal(t, "ok: 0", raw.Output, "no command may be written before the previous sentinel")
}

func TestSession_EngineDiesMidRequest(t *testing.T) {
	sess := startFake(t, fakeConfig(t, "interactive"))
	ctx := context.Background()

	_, err := sess.Send(ctx, "die")
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)

	_, err = sess.Send(ctx, "echo(x)")
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)

	assert.NoError(t, sess.Shutdown(ctx), "shutdown of an exited engine must not fail")
	assert.NoError(t, sess.Shutdown(ctx))
}

func TestSession_OversizedLine(t *testing.T) {
	ctx := context.Background()

	t.Run("Kills the engine", func(t *testing.T) {
		sess := startFake(t, fakeConfig(t, "interactive"))

		_, err := sess.Send(ctx, "enorme")
		assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
		assert.False(t, sess.Alive())
		assert.Zero(t, sess.PID())

		_, err = sess.Send(ctx, "echo(x)")
		assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
	})

	t.Run("Restarts when configured", func(t *testing.T) {
		cfg := fakeConfig(t, "interactive")
		cfg.RestartOnTimeout = true
		sess := startFake(t, cfg)
		firstPID := sess.PID()

		_, err := sess.Send(ctx, "enorme")
		assert.ErrorIs(t, err, domain.ErrEngineUnavailable)

		raw, err := sess.Send(ctx, "echo(otra_vez)")
		require.NoError(t, err)
		assert.Equal(t, "ok: otra_vez", raw.Output)
		assert.True(t, sess.Alive())
		assert.NotEqual(t, firstPID, sess.PID())
	})
}

func TestSession_ContextCancellation(t *testing.T) {
	sess := startFake(t, fakeConfig(t, "interactive"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := sess.Send(ctx, "sleep(400)")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 350*time.Millisecond)

	raw, err := sess.Send(context.Background(), "echo(despues)")
	require.NoError(t, err)
	assert.Equal(t, "ok: despues", raw.Output)
}

func TestSession_Shutdown(t *testing.T) {
	ctx := context.Background()

	t.Run("Idempotent", func(t *testing.T) {
		sess := startFake(t, fakeConfig(t, "interactive"))
		assert.NoError(t, sess.Shutdown(ctx))
		assert.NoError(t, sess.Shutdown(ctx))
		assert.False(t, sess.Alive())
		assert.Zero(t, sess.PID())

		_, err := sess.Send(ctx, "echo(x)")
		assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
	})

	t.Run("Kills an engine that ignores halt", func(t *testing.T) {
		cfg := fakeConfig(t, "deaf")
		cfg.GracePeriod = 200 * time.Millisecond
		sess := startFake(t, cfg)

		start := time.Now()
		assert.NoError(t, sess.Shutdown(ctx))
		elapsed := time.Since(start)

		assert.GreaterOrEqual(t, elapsed, cfg.GracePeriod)
		assert.Less(t, elapsed, cfg.GracePeriod+time.Second)
	})

	t.Run("Does not wait on inherited pipes", func(t *testing.T) {
		cfg := fakeConfig(t, "interactive")
		cfg.GracePeriod = 200 * time.Millisecond
		sess := startFake(t, cfg)

		raw, err := sess.Send(ctx, "nieto")
		require.NoError(t, err)
		require.Equal(t, "ok: nieto", raw.Output)

		start := time.Now()
		assert.NoError(t, sess.Shutdown(ctx))
		assert.Less(t, time.Since(start), 3*time.Second, "the sleeper holds stdout for 5s")
	})

	t.Run("Kills a hung engine", func(t *testing.T) {
		cfg := fakeConfig(t, "interactive")
		cfg.Timeout = 100 * time.Millisecond
		cfg.GracePeriod = 200 * time.Millisecond
		sess := startFake(t, cfg)

		_, err := sess.Send(ctx, "hang")
		require.NoError(t, err)

		start := time.Now()
		assert.NoError(t, sess.Shutdown(ctx))
		assert.Less(t, time.Since(start), cfg.GracePeriod+time.Second)
	})
}

func TestSession_Reload(t *testing.T) {
	cfg := fakeConfig(t, "interactive")
	sess := startFake(t, cfg)
	ctx := context.Background()

	assert.NoError(t, sess.Reload(ctx))

	require.NoError(t, os.Remove(cfg.RulesFile))
	err := sess.Reload(ctx)
	var engineErr *domain.EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, "load rules", engineErr.Op)
	assert.Contains(t, err.Error(), "no existe")
}

func TestSession_LifecycleHooks(t *testing.T) {
	var (
		mu      sync.Mutex
		sent    []string
		replies []domain.Status
	)
	hooks := domain.LifecycleHooks{
		OnSend: func(_ context.Context, e *domain.CommandEvent) {
			mu.Lock()
			defer mu.Unlock()
			sent = append(sent, e.Verb)
			assert.NotEmpty(t, e.RequestID)
		},
		OnReply: func(_ context.Context, e *domain.CommandEvent) {
			mu.Lock()
			defer mu.Unlock()
			replies = append(replies, e.Status)
		},
	}

	sess := startFake(t, fakeConfig(t, "interactive"), process.WithLifecycleHooks(hooks))
	ctx := context.Background()

	_, _ = sess.Send(ctx, "echo(a)")
	_, _ = sess.Send(ctx, "warn(b)")
	_, _ = sess.Send(ctx, "boom")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"echo", "warn", "boom"}, sent)
	assert.Equal(t, []domain.Status{domain.StatusOk, domain.StatusWarning, domain.StatusError}, replies)
}

func TestSession_SingleLiveEngine(t *testing.T) {
	locker := memory.NewLocker()
	cfg := fakeConfig(t, "interactive")

	first := startFake(t, cfg, process.WithLocker(locker))

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err := process.Start(ctx, cfg, process.WithLocker(locker))
	assert.ErrorIs(t, err, domain.ErrEngineLocked)

	_, err = process.Start(context.Background(), cfg, process.WithLocker(locker), process.WithLockWait(100*time.Millisecond))
	assert.ErrorIs(t, err, domain.ErrEngineLocked, "a bounded wait gives up on its own")

	require.NoError(t, first.Shutdown(context.Background()))

	second := startFake(t, cfg, process.WithLocker(locker))
	assert.True(t, second.Alive())
}

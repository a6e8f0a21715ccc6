package cli

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/tesoro/internal/logging"
	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Process-local lock", func(t *testing.T) {
		var verbs []string
		client := openFake(t, OpenOptions{
			Logger: logging.NewNop(),
			Hooks: domain.LifecycleHooks{
				OnReply: func(_ context.Context, e *domain.CommandEvent) { verbs = append(verbs, e.Verb) },
			},
			Sync: true,
		})

		assert.Equal(t, "bosque", client.State().Location)
		assert.Contains(t, verbs, "donde_estoy")
	})

	t.Run("Redis lock", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := fakeConfig(t)
		cfg.Redis.Addr = mr.Addr()
		cfg.Redis.Prefix = "test:"

		first, err := OpenClient(ctx, cfg, OpenOptions{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = first.Close() })
		assert.NotEmpty(t, mr.Keys(), "the engine lock lives in redis")

		_, err = OpenClient(ctx, cfg, OpenOptions{})
		assert.ErrorIs(t, err, domain.ErrEngineLocked)

		require.NoError(t, first.Close())
		second, err := OpenClient(ctx, cfg, OpenOptions{})
		require.NoError(t, err)
		assert.NoError(t, second.Close())
	})

	t.Run("Unreachable redis", func(t *testing.T) {
		cfg := fakeConfig(t)
		cfg.Redis.Addr = "127.0.0.1:1"
		_, err := OpenClient(ctx, cfg, OpenOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unreachable")
	})

	t.Run("One-shot transport", func(t *testing.T) {
		cfg := fakeConfig(t)
		cfg.Transport = "oneshot"
		client, err := OpenClient(ctx, cfg, OpenOptions{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })
		assert.Zero(t, client.PID())
	})
}

package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tesoro/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_LockUnlock(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "reglas.pl", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, unlock)

	assert.NoError(t, unlock(ctx))
	assert.NoError(t, unlock(ctx), "unlock is idempotent")

	again, err := locker.Lock(ctx, "reglas.pl", time.Minute)
	require.NoError(t, err)
	assert.NoError(t, again(ctx))
}

func TestLocker_Contention(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, "shared", time.Minute)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctxTimeout, "shared", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// A waiter is released as soon as the holder unlocks.
	acquired := make(chan struct{})
	go func() {
		unlock2, err := locker.Lock(ctx, "shared", time.Minute)
		assert.NoError(t, err)
		close(acquired)
		_ = unlock2(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, unlock1(ctx))

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}
}

func TestLocker_IndependentKeys(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	a, err := locker.Lock(ctx, "a", 0)
	require.NoError(t, err)
	b, err := locker.Lock(ctx, "b", 0)
	require.NoError(t, err)

	assert.NoError(t, a(ctx))
	assert.NoError(t, b(ctx))
}

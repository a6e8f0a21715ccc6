package tests

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/aretw0/tesoro/pkg/ports"
	"github.com/aretw0/tesoro/pkg/reply"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TransportContractTest verifies that a transport complies with ports.Transport.
// The transport must be connected to an engine that understands the scripted
// fake vocabulary: echo(X) prints "ok: X", fail fails, boom raises and
// lista prints "[a, b, c]".
func TransportContractTest(t *testing.T, transport ports.Transport) {
	t.Helper()
	ctx := context.Background()

	t.Run("Send_Ok", func(t *testing.T) {
		raw, err := transport.Send(ctx, "echo(hola)")
		require.NoError(t, err)
		assert.False(t, raw.TimedOut)
		out := reply.ClassifyReply(raw)
		assert.Equal(t, domain.StatusOk, out.Status)
		assert.Equal(t, "hola", out.Payload)
	})

	t.Run("Send_FailStillTerminates", func(t *testing.T) {
		raw, err := transport.Send(ctx, "fail")
		require.NoError(t, err)
		assert.False(t, raw.TimedOut)
		assert.Equal(t, domain.StatusNoReply, reply.ClassifyReply(raw).Status)
	})

	t.Run("Send_RaiseIsError", func(t *testing.T) {
		raw, err := transport.Send(ctx, "boom")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusError, reply.ClassifyReply(raw).Status)
	})

	t.Run("Send_List", func(t *testing.T) {
		raw, err := transport.Send(ctx, "lista")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, reply.ExtractList(raw.Text()))
	})

	t.Run("Send_TrailingPeriod", func(t *testing.T) {
		raw, err := transport.Send(ctx, "echo(punto).")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(raw.Text(), "punto"))
	})

	t.Run("Close_Idempotent", func(t *testing.T) {
		assert.NoError(t, transport.Close())
		assert.NotPanics(t, func() { _ = transport.Close() })
	})
}

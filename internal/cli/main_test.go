package cli

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aretw0/tesoro"
	"github.com/aretw0/tesoro/internal/config"
	"github.com/aretw0/tesoro/internal/testutils"
	"github.com/aretw0/tesoro/pkg/adapters/process"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	testutils.RunFakeEngineIfRequested()
	os.Exit(m.Run())
}

func fakeConfig(t *testing.T) config.Config {
	t.Helper()
	exe, env := testutils.FakeEngineCommand("interactive")
	cfg := config.Default()
	cfg.Engine = process.Config{
		Command:     exe,
		Environment: env,
		RulesFile:   testutils.WriteRules(t, "% reglas\n"),
		Timeout:     2 * time.Second,
		GracePeriod: 500 * time.Millisecond,
	}
	return cfg
}

func openFake(t *testing.T, o OpenOptions) *tesoro.Client {
	t.Helper()
	client, err := OpenClient(context.Background(), fakeConfig(t), o)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

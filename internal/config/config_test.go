package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("Full Document", func(t *testing.T) {
		cfg, err := Parse([]byte(`
engine:
  command: /usr/bin/swipl
  args: "-q --nosignals"
  rules: reglas.pl
  timeout: 750ms
  grace_period: 1s
  restart_on_timeout: true
transport: oneshot
vocabulary:
  move: go
redis:
  addr: localhost:6379
  db: 2
log:
  level: debug
`))
		require.NoError(t, err)
		assert.Equal(t, "/usr/bin/swipl", cfg.Engine.Command)
		assert.Equal(t, []string{"-q", "--nosignals"}, cfg.Engine.Args)
		assert.Equal(t, 750*time.Millisecond, cfg.Engine.Timeout)
		assert.Equal(t, time.Second, cfg.Engine.GracePeriod)
		assert.True(t, cfg.Engine.RestartOnTimeout)
		assert.Equal(t, TransportOneShot, cfg.Transport)
		assert.Equal(t, "go", cfg.Vocabulary.Move)
		assert.Equal(t, 2, cfg.Redis.DB)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("Unknown Keys Are Rejected", func(t *testing.T) {
		_, err := Parse([]byte("engine:\n  timeot: 5s\n"))
		assert.Error(t, err)
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		_, err := Parse([]byte("engine: [unterminated"))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	t.Run("Missing Default File Uses Defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "swipl", cfg.Engine.Command)
		assert.Equal(t, []string{"-q"}, cfg.Engine.Args)
		assert.Equal(t, 10*time.Second, cfg.Engine.Timeout)
		assert.Equal(t, 2*time.Second, cfg.Engine.GracePeriod)
		assert.Equal(t, TransportSession, cfg.Transport)
		assert.Equal(t, "mover", cfg.Vocabulary.Move)
	})

	t.Run("Missing Explicit File Fails", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Rules Resolve Relative To File", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tesoro.yaml")
		require.NoError(t, os.WriteFile(path, []byte("engine:\n  rules: juego/reglas.pl\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "juego", "reglas.pl"), cfg.Engine.RulesFile)
	})

	t.Run("Environment Overrides File", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tesoro.yaml")
		require.NoError(t, os.WriteFile(path, []byte("engine:\n  timeout: 3s\n"), 0o644))
		t.Setenv(EnvTimeout, "250ms")
		t.Setenv(EnvEngine, "swipl -q --traditional")
		t.Setenv(EnvRedisAddr, "redis:6379")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, cfg.Engine.Timeout)
		assert.Equal(t, []string{"-q", "--traditional"}, cfg.Engine.Args)
		assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	})

	t.Run("Unknown Transport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tesoro.yaml")
		require.NoError(t, os.WriteFile(path, []byte("transport: carrier-pigeon\n"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "unknown transport")
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{EnvTimeout: "5", EnvRules: "/srv/reglas.pl"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	var cfg Config
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, 5*time.Second, cfg.Engine.Timeout, "bare numbers are seconds")
	assert.Equal(t, "/srv/reglas.pl", cfg.Engine.RulesFile)

	env[EnvTimeout] = "soon"
	assert.Error(t, cfg.ApplyEnv(lookup))
}

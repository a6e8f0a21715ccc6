package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	DefaultCommand     = "swipl"
	DefaultTimeout     = 10 * time.Second
	DefaultGracePeriod = 2 * time.Second
	DefaultLockTTL     = 24 * time.Hour
)

// Config describes how to launch and talk to the logic engine.
type Config struct {
	// Command is the engine executable (looked up in PATH).
	Command string `yaml:"command" json:"command" mapstructure:"command"`
	// Args are startup flags; the default suppresses the interactive banner.
	Args []string `yaml:"args" json:"args" mapstructure:"args"`
	// RulesFile is the already-resolved path of the rules to consult at start.
	RulesFile string `yaml:"rules" json:"rules" mapstructure:"rules"`
	// Dir is the working directory of the engine process.
	Dir string `yaml:"dir" json:"dir" mapstructure:"dir"`
	// Environment is appended to the inherited environment as KEY=VALUE pairs.
	Environment []string `yaml:"env" json:"env" mapstructure:"env"`
	// Timeout bounds the wait for a single reply.
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
	// GracePeriod is how long Shutdown waits for a voluntary exit before killing.
	GracePeriod time.Duration `yaml:"grace_period" json:"grace_period" mapstructure:"grace_period"`
	// RestartOnTimeout restarts the engine when stale output from a timed-out
	// request cannot be drained, or when its output stream breaks. When false
	// the session becomes unavailable.
	RestartOnTimeout bool `yaml:"restart_on_timeout" json:"restart_on_timeout" mapstructure:"restart_on_timeout"`
	// LockTTL bounds how long a crashed client can hold the engine lock.
	LockTTL time.Duration `yaml:"lock_ttl" json:"lock_ttl" mapstructure:"lock_ttl"`
}

// DefaultConfig returns the configuration for a local SWI-Prolog engine.
func DefaultConfig() Config {
	return Config{
		Command:     DefaultCommand,
		Args:        []string{"-q"},
		Timeout:     DefaultTimeout,
		GracePeriod: DefaultGracePeriod,
		LockTTL:     DefaultLockTTL,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Command == "" {
		c.Command = d.Command
		if c.Args == nil {
			c.Args = d.Args
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = d.GracePeriod
	}
	if c.LockTTL <= 0 {
		c.LockTTL = d.LockTTL
	}
	return c
}

// Validate checks that the executable and the rules file exist.
// Failures match domain.ErrEngineUnavailable through the caller's wrapping.
func (c Config) Validate() error {
	if c.Command == "" {
		return errors.New("engine command is required")
	}
	if _, err := exec.LookPath(c.Command); err != nil {
		return fmt.Errorf("engine executable %q not found: %w", c.Command, err)
	}
	if c.RulesFile != "" {
		info, err := os.Stat(c.RulesFile)
		if err != nil {
			return fmt.Errorf("rules file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("rules file %q is a directory", c.RulesFile)
		}
	}
	return nil
}

// LockKey identifies the engine instance guarded by an EngineLocker.
func (c Config) LockKey() string {
	if c.RulesFile == "" {
		return c.Command
	}
	if abs, err := filepath.Abs(c.RulesFile); err == nil {
		return abs
	}
	return c.RulesFile
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/tesoro/pkg/adapters/process"
	"github.com/aretw0/tesoro/pkg/game"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "tesoro.yaml"

// Transport names.
const (
	TransportSession = "session"
	TransportOneShot = "oneshot"
)

// Environment variables that override file values.
const (
	EnvEngine    = "TESORO_ENGINE"
	EnvRules     = "TESORO_RULES"
	EnvTimeout   = "TESORO_TIMEOUT"
	EnvRedisAddr = "TESORO_REDIS_ADDR"
	EnvLogLevel  = "TESORO_LOG_LEVEL"
)

// Config is the full client configuration.
type Config struct {
	Engine     process.Config  `yaml:"engine" mapstructure:"engine"`
	Transport  string          `yaml:"transport" mapstructure:"transport"`
	Vocabulary game.Vocabulary `yaml:"vocabulary" mapstructure:"vocabulary"`
	Redis      RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Log        LogConfig       `yaml:"log" mapstructure:"log"`
	Serve      ServeConfig     `yaml:"serve" mapstructure:"serve"`
}

// RedisConfig enables the distributed engine lock when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
}

// LogConfig selects log verbosity and format.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServeConfig configures the metrics and state endpoint.
type ServeConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	c.Engine = c.Engine.WithDefaults()
	c.Vocabulary = c.Vocabulary.WithDefaults()
	if c.Transport == "" {
		c.Transport = TransportSession
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":9090"
	}
	return c
}

// Load reads path (or DefaultFile when path is empty), applies environment
// overrides and fills defaults. A missing DefaultFile is not an error; a
// missing explicit path is.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		cfg, err = Parse(data)
		if err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
		cfg.Engine.RulesFile = resolve(filepath.Dir(path), cfg.Engine.RulesFile)
		cfg.Engine.Dir = resolve(filepath.Dir(path), cfg.Engine.Dir)
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into a Config without defaults or overrides.
// Durations accept Go syntax ("750ms", "10s"); unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("invalid yaml: %w", err)
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(" "),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvEngine); ok && v != "" {
		fields := strings.Fields(v)
		c.Engine.Command = fields[0]
		c.Engine.Args = fields[1:]
	}
	if v, ok := lookup(EnvRules); ok && v != "" {
		c.Engine.RulesFile = v
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Engine.Timeout = d
	}
	if v, ok := lookup(EnvRedisAddr); ok {
		c.Redis.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c Config) validate() error {
	switch c.Transport {
	case TransportSession, TransportOneShot:
	default:
		return fmt.Errorf("unknown transport %q (want %q or %q)", c.Transport, TransportSession, TransportOneShot)
	}
	if c.Engine.GracePeriod < 0 || c.Engine.Timeout < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// parseDuration accepts Go durations and bare seconds ("5").
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

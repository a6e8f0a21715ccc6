package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/tesoro/internal/cli"
	"github.com/aretw0/tesoro/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tesoro",
	Short: "Tesoro plays a treasure hunt against a Prolog rules file",
	Long: `Tesoro keeps one logic engine process alive, loads the game rules into it
and lets you play through short phrases ("ir al templo", "tomar llave").`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default ./"+config.DefaultFile+" when present)")
	pf.String("engine", "", "Engine command line, e.g. 'swipl -q'")
	pf.String("rules", "", "Rules file consulted at startup")
	pf.Duration("timeout", 0, "Per-command reply budget")
	pf.Bool("oneshot", false, "Start a fresh engine per command instead of a persistent session")
	pf.String("redis", "", "Redis address for the engine lock shared across machines")
	pf.Bool("debug", false, "Enable debug logging")
}

// loadConfig resolves configuration with precedence flags > env > file > defaults.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}

	if v, _ := flags.GetString("engine"); strings.TrimSpace(v) != "" {
		fields := strings.Fields(v)
		cfg.Engine.Command = fields[0]
		cfg.Engine.Args = fields[1:]
	}
	if v, _ := flags.GetString("rules"); v != "" {
		cfg.Engine.RulesFile = v
	}
	if v, _ := flags.GetDuration("timeout"); v > 0 {
		cfg.Engine.Timeout = v
	}
	if v, _ := flags.GetBool("oneshot"); v {
		cfg.Transport = config.TransportOneShot
	}
	if flags.Changed("redis") {
		cfg.Redis.Addr, _ = flags.GetString("redis")
	}

	debug, _ := flags.GetBool("debug")
	logger, err := cli.CreateLogger(cfg.Log, debug)
	if err != nil {
		return config.Config{}, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

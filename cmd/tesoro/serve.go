package main

import (
	"context"
	"errors"

	"github.com/aretw0/tesoro/internal/cli"
	"github.com/aretw0/tesoro/internal/config"
	"github.com/aretw0/tesoro/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep the engine running and expose its status over HTTP",
	Long: `Starts the engine and serves /metrics (prometheus), /healthz, /state and
/events (recent requests). Combine with --watch to pick up rule changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		addr := cfg.Serve.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}
		watchMode, _ := cmd.Flags().GetBool("watch")
		if watchMode && cfg.Transport == config.TransportOneShot {
			return errors.New("--watch needs a persistent session; drop --oneshot")
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}
		journal := observability.NewJournal(observability.DefaultJournalSize)

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		client, err := cli.OpenClient(sigCtx, cfg, cli.OpenOptions{
			Logger: logger,
			Hooks:  metrics.Hooks().Merge(journal.Hooks()),
			Sync:   true,
		})
		if err != nil {
			return err
		}
		defer client.Close()

		if watchMode {
			go func() {
				if err := cli.WatchRules(sigCtx, cfg.Engine.RulesFile, cli.DefaultDebounce, client.Reload, logger); err != nil {
					logger.Error("Watcher stopped", "err", err)
				}
			}()
		}

		return cli.Serve(sigCtx, addr, cli.NewStatusHandler(client, reg, journal), logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":9090", "Address to listen on (overrides serve.addr)")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload the rules file when it changes")
}

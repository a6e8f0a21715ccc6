package main

import (
	"context"
	"errors"
	"os"

	"github.com/aretw0/tesoro"
	"github.com/aretw0/tesoro/internal/cli"
	"github.com/aretw0/tesoro/internal/config"
	"github.com/aretw0/tesoro/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play interactively",
	Long: `Starts the engine, loads the rules and reads phrases from the terminal.
Type 'ayuda' for the list of phrases and 'salir' to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		watchMode, _ := cmd.Flags().GetBool("watch")
		if watchMode && cfg.Transport == config.TransportOneShot {
			return errors.New("--watch needs a persistent session; drop --oneshot")
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		styler := tui.NewStyler(os.Stdout)
		tui.PrintBanner(os.Stdout, styler.Profile(), tesoro.Version)

		client, err := cli.OpenClient(sigCtx, cfg, cli.OpenOptions{Logger: logger, Sync: true})
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

		width := 0
		if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
			if w, _, err := term.GetSize(fd); err == nil {
				width = min(w, 100)
			}
		}

		err = cli.RunREPL(sigCtx, client, cli.REPLOptions{
			In:       os.Stdin,
			Out:      os.Stdout,
			Logger:   logger,
			Renderer: tui.NewRenderer(width),
		})
		if sig := sigCtx.Signal(); sig != nil {
			logger.Info("Interrupted", "signal", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().BoolP("watch", "w", false, "Reload the rules file when it changes")

	// play is the default when no command is given
	rootCmd.RunE = playCmd.RunE
	rootCmd.Flags().AddFlagSet(playCmd.Flags())
}

package main

import (
	"context"

	"github.com/aretw0/tesoro/internal/cli"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <command>...",
	Short: "Run engine commands and print the outcome",
	Long: `Sends each argument as a raw predicate call, in order, then prints every
outcome and the final cached state. Exits non-zero when a command fails.`,
	Example: `  tesoro exec 'mover(templo)' 'tomar(llave)' --format yaml`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		sync, _ := cmd.Flags().GetBool("sync")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		client, err := cli.OpenClient(sigCtx, cfg, cli.OpenOptions{Logger: logger, Sync: sync})
		if err != nil {
			return err
		}
		defer client.Close()

		return cli.RunExec(sigCtx, client, args, cmd.OutOrStdout(), format)
	},
}

func init() {
	rootCmd.AddCommand(execCmd)

	execCmd.Flags().StringP("format", "f", cli.FormatText, "Output format: text, json or yaml")
	execCmd.Flags().Bool("sync", true, "Query location and inventory before running")
}

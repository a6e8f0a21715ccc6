package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/tesoro"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tesoro",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tesoro version %s\n", strings.TrimSpace(tesoro.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"supply-alerts/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	// build info must print even when the config is broken
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "usdtwatcher %s\n", version.String())
	},
}

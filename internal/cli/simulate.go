package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"supply-alerts/internal/app"
)

var (
	simulateSupply string
	simulateDryRun bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Run the threshold check against a made-up supply value",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateSupply == "" {
			return errors.New("--supply is required")
		}
		value, err := decimal.NewFromString(simulateSupply)
		if err != nil {
			return errors.New("--supply must be a decimal number")
		}

		a := getApp()
		applyAlertFlags(cmd, a)
		return a.SimulateAlert(cmd.Context(), value, app.CheckOptions{DryRun: simulateDryRun})
	},
}

func init() {
	addAlertFlags(simulateCmd)
	simulateCmd.Flags().StringVar(&simulateSupply, "supply", "", "Supply value the synthetic feed reports")
	simulateCmd.Flags().BoolVar(&simulateDryRun, "dry-run", false, "Log the notification instead of sending it")
}

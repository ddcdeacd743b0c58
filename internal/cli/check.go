package cli

import (
	"github.com/spf13/cobra"

	"supply-alerts/internal/app"
)

var (
	ntfyTopic   string
	supplyMin   float64
	checkDryRun bool
)

var checkCmd = &cobra.Command{
	Use:     "check-tether-supply",
	Aliases: []string{"check"},
	Short:   "Fetch the USDT supply once and notify if it is below --supply-min",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp()
		applyAlertFlags(cmd, a)
		return a.Check(cmd.Context(), app.CheckOptions{DryRun: checkDryRun})
	},
}

func init() {
	addAlertFlags(checkCmd)
	checkCmd.Flags().BoolVar(&checkDryRun, "dry-run", false, "Log the notification instead of sending it")
}

func addAlertFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ntfyTopic, "ntfy-topic", "n", "", "ntfy topic to notify (env USDTWATCHER_ALERTING_NTFY_TOPIC)")
	cmd.Flags().Float64VarP(&supplyMin, "supply-min", "s", 0, "Minimum acceptable USDT supply")
}

// applyAlertFlags lets explicit flags win over config and environment.
func applyAlertFlags(cmd *cobra.Command, a *app.App) {
	if cmd.Flags().Changed("ntfy-topic") {
		a.Config.Alerting.Ntfy.Topic = ntfyTopic
	}
	if cmd.Flags().Changed("supply-min") {
		minimum := supplyMin
		a.Config.Alerting.SupplyMin = &minimum
	}
}

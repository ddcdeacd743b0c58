package cli

import (
	"github.com/spf13/cobra"

	"supply-alerts/internal/app"
)

var supplyRaw bool

var supplyCmd = &cobra.Command{
	Use:   "supply",
	Short: "Show the current USDT supply broken down by feed field",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Supply(cmd.Context(), app.SupplyOptions{Raw: supplyRaw})
	},
}

func init() {
	supplyCmd.Flags().BoolVar(&supplyRaw, "raw", false, "Print unrounded values")
}

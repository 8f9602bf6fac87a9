package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/rug-estimator/internal/model"
	"github.com/sells-group/rug-estimator/internal/pricing"
)

var (
	voService  string
	voOriginal float64
	voAdjusted float64
	voReason   string
)

var validateOverrideCmd = &cobra.Command{
	Use:   "validate-override",
	Short: "Check a proposed price override against the allowed bounds",
	RunE: func(cmd *cobra.Command, args []string) error {
		res := pricing.ValidateOverride(model.PriceOverride{
			ServiceID:     voService,
			OriginalPrice: voOriginal,
			AdjustedPrice: voAdjusted,
			Reason:        matchReason(voReason),
		})
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	validateOverrideCmd.Flags().StringVar(&voService, "service", "service", "service id")
	validateOverrideCmd.Flags().Float64Var(&voOriginal, "original", 0, "engine price for the service")
	validateOverrideCmd.Flags().Float64Var(&voAdjusted, "adjusted", 0, "proposed price")
	validateOverrideCmd.Flags().StringVar(&voReason, "reason", "", "disclosed reason")
	_ = validateOverrideCmd.MarkFlagRequired("original")
	_ = validateOverrideCmd.MarkFlagRequired("adjusted")
	rootCmd.AddCommand(validateOverrideCmd)
}

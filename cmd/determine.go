package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rug-estimator/internal/determine"
)

var determineInput string

var determineCmd = &cobra.Command{
	Use:   "determine",
	Short: "Determine services for an inspection",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadInspection(determineInput)
		if err != nil {
			return err
		}
		if err := in.Validate(); err != nil {
			return eris.Wrap(err, "determine")
		}
		return writeJSON(cmd.OutOrStdout(), determine.DetermineServices(in))
	},
}

func init() {
	determineCmd.Flags().StringVar(&determineInput, "input", "", "inspection file (.yaml, .yml or .json)")
	_ = determineCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(determineCmd)
}

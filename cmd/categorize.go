package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rug-estimator/internal/category"
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize NAME...",
	Short: "Classify service names into categories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, name := range args {
			c := category.CategorizeService(name)
			if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", name, c, category.Label(c)); err != nil {
				return eris.Wrap(err, "categorize: write")
			}
		}
		return eris.Wrap(tw.Flush(), "categorize: flush")
	},
}

func init() {
	rootCmd.AddCommand(categorizeCmd)
}

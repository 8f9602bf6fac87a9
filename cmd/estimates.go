package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rug-estimator/internal/export"
	"github.com/sells-group/rug-estimator/internal/store"
)

var (
	estimatesRef    string
	estimatesReview bool
	estimatesLimit  int
	estimatesOffset int
	showStaff       bool
)

var estimatesCmd = &cobra.Command{
	Use:   "estimates",
	Short: "Inspect saved estimates",
}

var estimatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved estimates, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return listEstimates(ctx, st, store.EstimateFilter{
			Reference:  estimatesRef,
			ReviewOnly: estimatesReview,
			Limit:      estimatesLimit,
			Offset:     estimatesOffset,
		}, cmd.OutOrStdout())
	},
}

var estimatesShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one saved estimate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return showEstimate(ctx, st, args[0], showStaff, cmd.OutOrStdout())
	},
}

func init() {
	estimatesListCmd.Flags().StringVar(&estimatesRef, "reference", "", "filter by reference")
	estimatesListCmd.Flags().BoolVar(&estimatesReview, "review", false, "only estimates flagged for staff review")
	estimatesListCmd.Flags().IntVar(&estimatesLimit, "limit", 50, "max rows")
	estimatesListCmd.Flags().IntVar(&estimatesOffset, "offset", 0, "rows to skip")
	estimatesShowCmd.Flags().BoolVar(&showStaff, "staff", false, "include staff-only fields and the override audit trail")

	estimatesCmd.AddCommand(estimatesListCmd, estimatesShowCmd)
	rootCmd.AddCommand(estimatesCmd)
}

func listEstimates(ctx context.Context, st store.Store, filter store.EstimateFilter, w io.Writer) error {
	list, err := st.ListEstimates(ctx, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREFERENCE\tSERVICES\tTOTAL\tREVIEW\tCREATED") //nolint:errcheck
	for _, e := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%t\t%s\n", //nolint:errcheck
			e.ID, e.Reference, e.ServiceCount, export.FormatMoney(e.Total),
			e.RequiresStaffReview, e.CreatedAt.Format(time.RFC3339))
	}
	return eris.Wrap(tw.Flush(), "estimates: flush")
}

func showEstimate(ctx context.Context, st store.Store, id string, staff bool, w io.Writer) error {
	est, err := st.GetEstimate(ctx, id)
	if err != nil {
		return err
	}
	if !staff {
		return writeJSON(w, export.ClientView(est))
	}

	recs, err := st.ListOverrides(ctx, id)
	if err != nil {
		return err
	}
	est.Overrides = est.Overrides[:0]
	for _, r := range recs {
		est.Overrides = append(est.Overrides, r.PriceOverride)
	}
	return writeJSON(w, est)
}

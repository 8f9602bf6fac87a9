package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rug-estimator/internal/estimate"
	"github.com/sells-group/rug-estimator/internal/export"
	"github.com/sells-group/rug-estimator/internal/model"
	"github.com/sells-group/rug-estimator/internal/store"
)

var (
	priceInput     string
	priceOverrides []string
	priceSave      bool
	priceStaff     bool
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Determine and price services for an inspection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := loadRequest(priceInput)
		if err != nil {
			return err
		}

		var st store.Store
		if priceSave {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		est, err := runPrice(ctx, estimate.NewService(st), req, priceOverrides, priceSave)
		if err != nil {
			return err
		}
		return writeEstimate(cmd.OutOrStdout(), est, priceStaff)
	},
}

func init() {
	priceCmd.Flags().StringVar(&priceInput, "input", "", "inspection or request file (.yaml, .yml or .json)")
	priceCmd.Flags().StringArrayVar(&priceOverrides, "override", nil, `price override as "service-id=amount:reason" (repeatable)`)
	priceCmd.Flags().BoolVar(&priceSave, "save", false, "persist the estimate and accepted overrides")
	priceCmd.Flags().BoolVar(&priceStaff, "staff", false, "include staff-only risk fields in the output")
	_ = priceCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(priceCmd)
}

// overrideSpec is a parsed --override flag.
type overrideSpec struct {
	serviceID string
	amount    float64
	reason    model.OverrideReason
}

// parseOverrideSpec parses "service-id=amount:reason". The reason is matched
// case-insensitively against the accepted reasons.
func parseOverrideSpec(s string) (overrideSpec, error) {
	id, rest, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(id) == "" {
		return overrideSpec{}, eris.Errorf("override %q: want service-id=amount:reason", s)
	}
	amountStr, reasonStr, ok := strings.Cut(rest, ":")
	if !ok {
		return overrideSpec{}, eris.Errorf("override %q: missing reason", s)
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(amountStr), 64)
	if err != nil {
		return overrideSpec{}, eris.Wrapf(err, "override %q: invalid amount", s)
	}

	return overrideSpec{serviceID: strings.TrimSpace(id), amount: amount, reason: matchReason(reasonStr)}, nil
}

// matchReason maps s onto an accepted reason ignoring case. Unknown text is
// returned as-is so validation can reject it.
func matchReason(s string) model.OverrideReason {
	s = strings.TrimSpace(s)
	for _, known := range model.OverrideReasons() {
		if strings.EqualFold(string(known), s) {
			return known
		}
	}
	return model.OverrideReason(s)
}

// runPrice prices req with the overrides given as flags. Each override is
// checked against the estimate's own computed price for its service.
func runPrice(ctx context.Context, svc *estimate.Service, req estimate.Request, specs []string, save bool) (*model.Estimate, error) {
	for _, raw := range specs {
		spec, err := parseOverrideSpec(raw)
		if err != nil {
			return nil, err
		}
		req.Overrides = append(req.Overrides, model.PriceOverride{
			ServiceID:     spec.serviceID,
			AdjustedPrice: spec.amount,
			Reason:        spec.reason,
		})
	}

	req.Persist = save
	return svc.Run(ctx, req)
}

// writeEstimate prints the staff or client view of est plus any rejected
// overrides.
func writeEstimate(w io.Writer, est *model.Estimate, staff bool) error {
	if staff {
		return writeJSON(w, est)
	}
	if err := writeJSON(w, export.ClientView(est)); err != nil {
		return err
	}
	for _, r := range est.Rejected {
		if _, err := fmt.Fprintf(w, "override rejected for %s: %s\n", r.Override.ServiceID, r.Error); err != nil {
			return eris.Wrap(err, "write rejected override")
		}
	}
	return nil
}

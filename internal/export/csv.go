package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rug-estimator/internal/category"
	"github.com/sells-group/rug-estimator/internal/model"
)

// WriteCSV writes one row per priced service followed by a total row.
func WriteCSV(w io.Writer, est *model.Estimate, opts Options) error {
	if est == nil {
		return eris.New("export: nil estimate")
	}
	cw := csv.NewWriter(w)

	header := serviceHeader(opts)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write CSV header")
	}

	for _, s := range est.Pricing.Services {
		if err := cw.Write(serviceRow(s, opts)); err != nil {
			return eris.Wrapf(err, "export: write CSV row %s", s.ID)
		}
	}

	total := make([]string, len(header))
	total[0] = "total"
	total[6] = formatAmount(est.Pricing.TotalAfterAdjustments)
	if err := cw.Write(total); err != nil {
		return eris.Wrap(err, "export: write CSV total")
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush CSV")
}

func serviceRow(s model.PricedService, opts Options) []string {
	row := []string{
		s.ID,
		s.Name,
		category.Label(s.Category),
		strconv.FormatFloat(s.Quantity, 'f', -1, 64),
		string(s.PriceType),
		formatAmount(s.BaseUnitPrice),
		formatAmount(s.AdjustedTotal),
		strconv.FormatBool(s.CanDecline),
		s.DeclineConsequence,
	}
	if opts.Staff {
		row = append(row,
			formatAmount(s.BaseTotal),
			string(s.RiskLevel),
			strconv.FormatFloat(s.RiskMultiplier, 'f', 2, 64),
			strings.Join(s.PricingFactors, "; "),
			strconv.FormatBool(s.IsOverridden),
		)
	}
	return row
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

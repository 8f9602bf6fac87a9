package export

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/rug-estimator/internal/category"
	"github.com/sells-group/rug-estimator/internal/model"
)

const (
	servicesSheet = "Services"
	summarySheet  = "Summary"
	moneyFormat   = "#,##0.00"
)

// WriteXLSX writes a workbook with a Services sheet and a Summary sheet.
func WriteXLSX(w io.Writer, est *model.Estimate, opts Options) error {
	if est == nil {
		return eris.New("export: nil estimate")
	}
	f := xlsx.NewFile()

	services, err := f.AddSheet(servicesSheet)
	if err != nil {
		return eris.Wrap(err, "export: add services sheet")
	}
	addStringRow(services, serviceHeader(opts))
	for _, s := range est.Pricing.Services {
		addServiceRow(services, s, opts)
	}

	summary, err := f.AddSheet(summarySheet)
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	addSummary(summary, est, opts)

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addServiceRow(sheet *xlsx.Sheet, s model.PricedService, opts Options) {
	row := sheet.AddRow()
	row.AddCell().SetString(s.ID)
	row.AddCell().SetString(s.Name)
	row.AddCell().SetString(category.Label(s.Category))
	row.AddCell().SetFloat(s.Quantity)
	row.AddCell().SetString(string(s.PriceType))
	row.AddCell().SetFloatWithFormat(s.BaseUnitPrice, moneyFormat)
	row.AddCell().SetFloatWithFormat(s.AdjustedTotal, moneyFormat)
	row.AddCell().SetBool(s.CanDecline)
	row.AddCell().SetString(s.DeclineConsequence)
	if opts.Staff {
		row.AddCell().SetFloatWithFormat(s.BaseTotal, moneyFormat)
		row.AddCell().SetString(string(s.RiskLevel))
		row.AddCell().SetFloatWithFormat(s.RiskMultiplier, "0.00")
		row.AddCell().SetString(strings.Join(s.PricingFactors, "; "))
		row.AddCell().SetBool(s.IsOverridden)
	}
}

func addSummary(sheet *xlsx.Sheet, est *model.Estimate, opts Options) {
	pairs := [][2]string{
		{"Reference", est.Reference},
		{"Condition summary", est.Determination.ConditionSummary},
		{"Total", FormatMoney(est.Pricing.TotalAfterAdjustments)},
		{"Pricing statement", est.Pricing.PricingStatement},
		{"Disclosure", est.Determination.RiskDisclosure},
	}
	if opts.Staff {
		pairs = append(pairs,
			[2]string{"Total before adjustments", FormatMoney(est.Pricing.TotalBeforeAdjustments)},
			[2]string{"Requires staff review", boolWord(est.Determination.RequiresStaffReview)},
			[2]string{"Review reasons", strings.Join(est.Determination.ReviewReasons, "; ")},
		)
	}
	for _, p := range pairs {
		addStringRow(sheet, p[:])
	}
}

func boolWord(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

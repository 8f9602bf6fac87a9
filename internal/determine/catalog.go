package determine

import (
	"fmt"
	"math"

	"github.com/sells-group/rug-estimator/internal/model"
)

// Rule is a single service rule: a predicate over the inspection plus the
// metadata needed to materialize a DeterminedService when it fires.
type Rule struct {
	ID                 string
	Name               string
	Category           model.Category
	BasePrice          float64
	PriceType          model.PriceType
	Condition          func(model.InspectionInput) bool
	Rationale          func(model.InspectionInput) string
	DeclineConsequence string
	Priority           int
}

// paddingThresholdSqFt is the area above which a rug pad is recommended.
const paddingThresholdSqFt = 60

func always(model.InspectionInput) bool { return true }

func text(s string) func(model.InspectionInput) string {
	return func(model.InspectionInput) string { return s }
}

var catalog = []Rule{
	{
		ID:        "full-immersion-cleaning",
		Name:      "Full Immersion Cleaning",
		Category:  model.CategoryRequired,
		BasePrice: 3.50,
		PriceType: model.PricePerSqFt,
		Condition: always,
		Rationale: func(in model.InspectionInput) string {
			if in.Conditions.Soiling.Present() {
				return fmt.Sprintf("Removes %s embedded soil from the foundation and pile.", in.Conditions.Soiling)
			}
			return "Baseline wash that removes embedded soil from the foundation and pile."
		},
		Priority: 1,
	},
	{
		ID:        "dusting",
		Name:      "Mechanical Dusting",
		Category:  model.CategoryRequired,
		BasePrice: 0.75,
		PriceType: model.PricePerSqFt,
		Condition: always,
		Rationale: text("Dry soil must be removed before wet cleaning to prevent it from turning to mud in the fibers."),
		Priority:  2,
	},
	{
		ID:        "dye-stabilization",
		Name:      "Dye Stabilization",
		Category:  model.CategoryRequired,
		BasePrice: 1.25,
		PriceType: model.PricePerSqFt,
		Condition: func(in model.InspectionInput) bool { return in.Conditions.ColorRun.Present() },
		Rationale: func(in model.InspectionInput) string {
			return fmt.Sprintf("Fugitive dyes (%s color run) must be set before the rug can be washed.", in.Conditions.ColorRun)
		},
		Priority: 3,
	},
	{
		ID:        "moth-treatment",
		Name:      "Moth Treatment",
		Category:  model.CategoryRequired,
		BasePrice: 85,
		PriceType: model.PriceFlat,
		Condition: func(in model.InspectionInput) bool { return in.Conditions.MothDamage.Present() },
		Rationale: text("Active or past moth damage requires treatment so larvae are not returned to the home."),
		Priority:  4,
	},
	{
		ID:        "urine-decontamination",
		Name:      "Urine Decontamination",
		Category:  model.CategoryRequired,
		BasePrice: 2.25,
		PriceType: model.PricePerSqFt,
		Condition: func(in model.InspectionInput) bool {
			return in.Conditions.PetUrine.AtLeast(model.SeverityModerate)
		},
		Rationale: func(in model.InspectionInput) string {
			return fmt.Sprintf("Urine salts from %s contamination must be flushed from the foundation before cleaning.", in.Conditions.PetUrine)
		},
		Priority: 5,
	},
	{
		ID:        "stain-treatment",
		Name:      "Spot & Stain Treatment",
		Category:  model.CategoryRecommended,
		BasePrice: 1.10,
		PriceType: model.PricePerSqFt,
		Condition: func(in model.InspectionInput) bool { return in.Conditions.Staining.Present() },
		Rationale: func(in model.InspectionInput) string {
			return fmt.Sprintf("Targets %s staining that a standard wash will not fully release.", in.Conditions.Staining)
		},
		DeclineConsequence: "Stains may remain visible after cleaning and can set permanently.",
		Priority:           6,
	},
	{
		ID:        "odor-treatment",
		Name:      "Odor Neutralization",
		Category:  model.CategoryRecommended,
		BasePrice: 0.90,
		PriceType: model.PricePerSqFt,
		Condition: func(in model.InspectionInput) bool {
			return in.Conditions.PetUrine == model.SeverityMinor
		},
		Rationale:          text("Neutralizes light pet odor that remains after washing."),
		DeclineConsequence: "Some odor may return in humid conditions.",
		Priority:           7,
	},
	{
		ID:        "fringe-repair",
		Name:      "Fringe Repair",
		Category:  model.CategoryRecommended,
		BasePrice: 4.50,
		PriceType: model.PricePerLinearFt,
		Condition: func(in model.InspectionInput) bool {
			f := in.Conditions.FringeDamage
			return f == model.SeverityMinor || f == model.SeverityModerate
		},
		Rationale: func(in model.InspectionInput) string {
			return fmt.Sprintf("Secures %s fringe damage before it unravels into the body of the rug.", in.Conditions.FringeDamage)
		},
		DeclineConsequence: "Loose fringe can continue to unravel and eventually require replacement.",
		Priority:           8,
	},
	{
		ID:        "edge-rebinding",
		Name:      "Edge Rebinding",
		Category:  model.CategoryRecommended,
		BasePrice: 6.00,
		PriceType: model.PricePerLinearFt,
		Condition: func(in model.InspectionInput) bool { return in.Conditions.EdgeDamage.Present() },
		Rationale: func(in model.InspectionInput) string {
			return fmt.Sprintf("Rewraps the sides where %s edge damage exposes the foundation.", in.Conditions.EdgeDamage)
		},
		DeclineConsequence: "Exposed edges wear quickly and can split the foundation.",
		Priority:           9,
	},
	{
		ID:                 "hole-stabilization",
		Name:               "Hole Stabilization",
		Category:           model.CategoryRecommended,
		BasePrice:          95,
		PriceType:          model.PriceFlat,
		Condition:          func(in model.InspectionInput) bool { return in.Conditions.HolesTears == model.SeverityMinor },
		Rationale:          text("Stabilizes small holes or tears so they do not grow with use."),
		DeclineConsequence: "Small holes tend to enlarge and may later require reweaving.",
		Priority:           10,
	},
	{
		ID:        "fringe-replacement",
		Name:      "Fringe Replacement",
		Category:  model.CategoryHighCost,
		BasePrice: 14.00,
		PriceType: model.PricePerLinearFt,
		Condition: func(in model.InspectionInput) bool {
			return in.Conditions.FringeDamage == model.SeveritySevere
		},
		Rationale:          text("Fringe is too deteriorated to repair and must be rebuilt from the warp."),
		DeclineConsequence: "Knots at the ends can loosen and the rug will begin to lose rows.",
		Priority:           11,
	},
	{
		ID:        "hole-reweaving",
		Name:      "Hole Reweaving",
		Category:  model.CategoryHighCost,
		BasePrice: 350,
		PriceType: model.PriceFlat,
		Condition: func(in model.InspectionInput) bool {
			return in.Conditions.HolesTears.AtLeast(model.SeverityModerate)
		},
		Rationale: func(in model.InspectionInput) string {
			return fmt.Sprintf("Rebuilds the foundation and pile where %s holes or tears have broken the weave.", in.Conditions.HolesTears)
		},
		DeclineConsequence: "Damaged areas will continue to open and may become unrepairable.",
		Priority:           12,
	},
	{
		ID:        "pile-restoration",
		Name:      "Pile Restoration",
		Category:  model.CategoryHighCost,
		BasePrice: 12.00,
		PriceType: model.PricePerSqFt,
		Condition: func(in model.InspectionInput) bool {
			return in.Conditions.Wear == model.SeveritySevere
		},
		Rationale:          text("Severely worn areas have lost pile down to the foundation and need knots reinserted."),
		DeclineConsequence: "Worn areas will continue to thin and expose the foundation.",
		Priority:           13,
	},
	{
		ID:                 "foundation-stabilization",
		Name:               "Foundation Stabilization",
		Category:           model.CategoryHighCost,
		BasePrice:          8.00,
		PriceType:          model.PricePerSqFt,
		Condition:          func(in model.InspectionInput) bool { return in.Conditions.DryRot },
		Rationale:          text("Dry rot has weakened the cotton foundation; affected areas need consolidation before handling."),
		DeclineConsequence: "Weakened foundation can crack or tear during normal use or future cleaning.",
		Priority:           14,
	},
	{
		ID:        "rug-padding",
		Name:      "Rug Pad",
		Category:  model.CategoryPreventative,
		BasePrice: 1.50,
		PriceType: model.PricePerSqFt,
		Condition: func(in model.InspectionInput) bool {
			return in.SquareFootage > paddingThresholdSqFt
		},
		Rationale:          text("A pad reduces friction wear and slipping on a rug of this size."),
		DeclineConsequence: "The rug may shift and wear faster on hard floors.",
		Priority:           15,
	},
	{
		ID:        "moth-prevention",
		Name:      "Moth Prevention Treatment",
		Category:  model.CategoryPreventative,
		BasePrice: 0.60,
		PriceType: model.PricePerSqFt,
		Condition: func(in model.InspectionInput) bool {
			return in.Conditions.PestsInEnvironment && !in.Conditions.MothDamage.Present()
		},
		Rationale:          text("Pests were reported in the home; a repellent finish discourages future infestation."),
		DeclineConsequence: "The rug remains vulnerable to moth activity in the home.",
		Priority:           16,
	},
	{
		ID:        "fiber-protector",
		Name:      "Fiber Protector",
		Category:  model.CategoryPreventative,
		BasePrice: 0.85,
		PriceType: model.PricePerSqFt,
		Condition: func(in model.InspectionInput) bool {
			return in.Material.Value == model.ValuePremium || in.Material.Value == model.ValueHeirloom
		},
		Rationale:          text("A protective finish helps a valuable rug resist spills and soil between cleanings."),
		DeclineConsequence: "Spills are more likely to set before they can be blotted.",
		Priority:           17,
	},
}

// Catalog returns a copy of the compiled-in rule catalog in evaluation order.
func Catalog() []Rule {
	out := make([]Rule, len(catalog))
	copy(out, catalog)
	return out
}

// EstimatePerimeter approximates the perimeter of a rug from its area,
// assuming a 3:2 length to width ratio. The result is rounded to one decimal
// and is an approximation used only when linear dimensions are unknown.
func EstimatePerimeter(area float64) float64 {
	if area <= 0 || math.IsNaN(area) || math.IsInf(area, 0) {
		return 0
	}
	width := math.Sqrt(area * 2 / 3)
	length := 1.5 * width
	return math.Round(2*(width+length)*10) / 10
}

// quantity derives the billable quantity for a price type.
func quantity(pt model.PriceType, sqft float64) float64 {
	switch pt {
	case model.PricePerSqFt:
		return sqft
	case model.PricePerLinearFt:
		return EstimatePerimeter(sqft)
	default:
		return 1
	}
}

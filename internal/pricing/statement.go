package pricing

import (
	"fmt"

	"github.com/sells-group/rug-estimator/internal/model"
)

// Pricing factor tags. These are staff-facing labels only.
const (
	FactorStructuralRisk    = "structural risk"
	FactorElevatedHandling  = "elevated handling"
	FactorSevereCondition   = "severe condition"
	FactorModerateCondition = "moderate condition"
	FactorDelicateFiber     = "delicate fiber"
	FactorAntiqueCare       = "antique care"
	FactorAgedTextileCare   = "aged textile care"
	FactorHeirloomHandling  = "heirloom handling"
	FactorPremiumTextile    = "premium textile"
	FactorFineConstruction  = "fine hand construction"
	FactorManualAdjustment  = "manual price adjustment"
)

// highRiskMaterial is the material multiplier at or above which an estimate
// is worded as high risk.
const highRiskMaterial = 1.3

func pricingFactors(level model.RiskLevel, sev model.Severity, m model.Material, materialApplied bool) []string {
	factors := []string{}

	switch level {
	case model.RiskHigh:
		factors = append(factors, FactorStructuralRisk)
	case model.RiskMedium:
		factors = append(factors, FactorElevatedHandling)
	}

	switch sev {
	case model.SeveritySevere:
		factors = append(factors, FactorSevereCondition)
	case model.SeverityModerate:
		factors = append(factors, FactorModerateCondition)
	}

	if !materialApplied {
		return factors
	}

	if m.Type == model.MaterialDelicateFiber {
		factors = append(factors, FactorDelicateFiber)
	}
	switch m.Age {
	case model.AgeAntique:
		factors = append(factors, FactorAntiqueCare)
	case model.AgeSemiAntique:
		factors = append(factors, FactorAgedTextileCare)
	}
	switch m.Value {
	case model.ValueHeirloom:
		factors = append(factors, FactorHeirloomHandling)
	case model.ValuePremium:
		factors = append(factors, FactorPremiumTextile)
	}
	if m.Construction == model.ConstructionHandMadeHighSkill {
		factors = append(factors, FactorFineConstruction)
	}

	return factors
}

// pricingStatement returns client-safe wording. It mentions only the
// material description, never risk levels or multipliers.
func pricingStatement(m model.Material, structural, highRisk bool) string {
	desc := describeMaterial(m)
	switch {
	case structural && highRisk:
		return fmt.Sprintf("Pricing for this %s reflects the structural repair identified during inspection "+
			"and the specialized handling needed to restore it safely. Each service is itemized so you can "+
			"review the work before authorizing it.", desc)
	case highRisk:
		return fmt.Sprintf("Pricing for this %s reflects the additional care its construction and condition "+
			"require during cleaning and repair.", desc)
	default:
		return fmt.Sprintf("Pricing for this %s is based on its size and the services selected.", desc)
	}
}

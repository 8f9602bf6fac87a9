// Package pricing computes risk-adjusted prices for determined services and
// validates staff price overrides.
package pricing

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/rug-estimator/internal/model"
)

// RiskLevelFor maps a service category to its internal risk level.
func RiskLevelFor(c model.Category) model.RiskLevel {
	switch c {
	case model.CategoryHighCost:
		return model.RiskHigh
	case model.CategoryRecommended:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

var riskMultipliers = map[model.RiskLevel]float64{
	model.RiskLow:    1.00,
	model.RiskMedium: 1.10,
	model.RiskHigh:   1.25,
}

var severityMultipliers = map[model.Severity]float64{
	model.SeverityNone:     1.00,
	model.SeverityMinor:    1.05,
	model.SeverityModerate: 1.15,
	model.SeveritySevere:   1.30,
}

// SeverityMultiplier returns the price multiplier for a severity. Unknown
// values price as none.
func SeverityMultiplier(s model.Severity) float64 {
	if v, ok := severityMultipliers[s]; ok {
		return v
	}
	return 1.0
}

// riskDamping is the exponent applied to the combined multiplier.
const riskDamping = 0.75

type severityMapping struct {
	keywords  []string
	condition model.ConditionKey
}

// severityKeywords maps service id fragments to the condition that drives
// that service. Evaluated in order; first match wins.
var severityKeywords = []severityMapping{
	{[]string{"stain"}, model.ConditionStaining},
	{[]string{"urine", "odor"}, model.ConditionPetUrine},
	{[]string{"fringe"}, model.ConditionFringeDamage},
	{[]string{"edge", "binding"}, model.ConditionEdgeDamage},
	{[]string{"hole", "reweav"}, model.ConditionHolesTears},
	{[]string{"pile", "wear"}, model.ConditionWear},
	{[]string{"dye", "color"}, model.ConditionColorRun},
	{[]string{"moth"}, model.ConditionMothDamage},
	{[]string{"foundation", "dry-rot"}, model.ConditionDryRot},
	{[]string{"clean", "dust"}, model.ConditionSoiling},
}

// RelevantSeverity picks the condition severity most relevant to a service
// id. Ids with no keyword match fall back to the most severe tracked flag.
func RelevantSeverity(serviceID string, c model.Conditions) model.Severity {
	id := strings.ToLower(serviceID)
	for _, m := range severityKeywords {
		for _, kw := range m.keywords {
			if strings.Contains(id, kw) {
				return c.Severity(m.condition)
			}
		}
	}
	return c.MostSevere()
}

// materialApplies reports whether the material multiplier scales a service.
func materialApplies(s model.DeterminedService) bool {
	return s.Category == model.CategoryHighCost ||
		s.Category == model.CategoryRecommended ||
		strings.Contains(strings.ToLower(s.ID), "clean")
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine prices determined services. It is stateless and safe for
// concurrent use.
type Engine struct {
	log *zap.Logger
}

// New creates a pricing Engine.
func New(opts ...Option) *Engine {
	e := &Engine{log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// CalculatePricing prices services for in. Overrides are keyed by service id
// and must already have passed ValidateOverride.
func CalculatePricing(services []model.DeterminedService, in model.InspectionInput, overrides map[string]float64) model.PricingResult {
	return defaultEngine.Calculate(services, in, overrides)
}

// Calculate prices every service and builds the aggregate result.
func (e *Engine) Calculate(services []model.DeterminedService, in model.InspectionInput, overrides map[string]float64) model.PricingResult {
	material := MaterialMultiplier(in.Material)

	priced := make([]model.PricedService, 0, len(services))
	var before, after, multSum float64
	var structural, highRisk bool

	for _, s := range services {
		ps := e.priceService(s, in, material, overrides)
		priced = append(priced, ps)

		before += ps.BaseTotal
		after += ps.AdjustedTotal
		multSum += ps.RiskMultiplier

		if s.Category == model.CategoryHighCost {
			structural = true
		}
		if ps.RiskLevel == model.RiskHigh || RelevantSeverity(s.ID, in.Conditions) == model.SeveritySevere {
			highRisk = true
		}
	}
	if material >= highRiskMaterial {
		highRisk = true
	}

	avg := 0.0
	if len(priced) > 0 {
		avg = round2(multSum / float64(len(priced)))
	}

	result := model.PricingResult{
		Services:               priced,
		TotalBeforeAdjustments: round2(before),
		TotalAfterAdjustments:  round2(after),
		AverageRiskMultiplier:  avg,
		PricingStatement:       pricingStatement(in.Material, structural, highRisk),
	}

	e.log.Debug("pricing: calculated",
		zap.Int("services", len(priced)),
		zap.Float64("material_multiplier", material),
		zap.Float64("total_before", result.TotalBeforeAdjustments),
		zap.Float64("total_after", result.TotalAfterAdjustments),
		zap.Int("overrides", len(overrides)),
	)

	return result
}

func (e *Engine) priceService(s model.DeterminedService, in model.InspectionInput, material float64, overrides map[string]float64) model.PricedService {
	s.CanDecline = s.Category != model.CategoryRequired
	level := RiskLevelFor(s.Category)
	severity := RelevantSeverity(s.ID, in.Conditions)

	combined := riskMultipliers[level] * SeverityMultiplier(severity)
	applied := materialApplies(s)
	if applied {
		combined *= material
	}
	mult := round2(math.Pow(combined, riskDamping))

	base := round2(nonNegative(s.BaseUnitPrice) * nonNegative(s.Quantity))

	ps := model.PricedService{
		DeterminedService: s,
		BaseTotal:         base,
		RiskMultiplier:    mult,
		AdjustedTotal:     round2(base * mult),
		RiskLevel:         level,
		PricingFactors:    pricingFactors(level, severity, in.Material, applied),
	}

	if amount, ok := overrides[s.ID]; ok {
		amount = nonNegative(amount)
		ps.AdjustedTotal = amount
		ps.IsOverridden = true
		ps.OverrideAmount = &amount
		ps.PricingFactors = append(ps.PricingFactors, FactorManualAdjustment)
	}

	return ps
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// nonNegative collapses NaN, infinities and negatives to zero.
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

package model

import "time"

// Category groups services by how strongly they are advised.
type Category string

const (
	CategoryRequired     Category = "required"
	CategoryRecommended  Category = "recommended"
	CategoryHighCost     Category = "high_cost"
	CategoryPreventative Category = "preventative"
)

// Valid reports whether c is one of the four service categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryRequired, CategoryRecommended, CategoryHighCost, CategoryPreventative:
		return true
	}
	return false
}

// PriceType describes what a base unit price is charged against.
type PriceType string

const (
	PricePerSqFt     PriceType = "per_sq_ft"
	PricePerLinearFt PriceType = "per_linear_ft"
	PriceFlat        PriceType = "flat"
)

// RiskLevel is an internal-only tag derived from category. It is never shown
// to clients.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// DeterminedService is a service the engine has decided applies to an
// inspection, before pricing.
type DeterminedService struct {
	ID                 string    `json:"id" yaml:"id"`
	Name               string    `json:"name" yaml:"name"`
	Category           Category  `json:"category" yaml:"category"`
	Rationale          string    `json:"rationale" yaml:"rationale"`
	Quantity           float64   `json:"quantity" yaml:"quantity"`
	PriceType          PriceType `json:"price_type" yaml:"price_type"`
	BaseUnitPrice      float64   `json:"base_unit_price" yaml:"base_unit_price"`
	CanDecline         bool      `json:"can_decline" yaml:"can_decline"`
	DeclineConsequence string    `json:"decline_consequence" yaml:"decline_consequence"`
	Priority           int       `json:"priority" yaml:"priority"`
}

// NewDeterminedService builds a DeterminedService. CanDecline is derived from
// the category and cannot be set independently.
func NewDeterminedService(id, name string, cat Category, rationale string, qty float64, pt PriceType, unit float64, consequence string, priority int) DeterminedService {
	return DeterminedService{
		ID:                 id,
		Name:               name,
		Category:           cat,
		Rationale:          rationale,
		Quantity:           qty,
		PriceType:          pt,
		BaseUnitPrice:      unit,
		CanDecline:         cat != CategoryRequired,
		DeclineConsequence: consequence,
		Priority:           priority,
	}
}

// ServiceDetermination is the output of the determination engine.
type ServiceDetermination struct {
	Services            []DeterminedService `json:"services"`
	ConditionSummary    string              `json:"condition_summary"`
	RiskDisclosure      string              `json:"risk_disclosure"`
	RequiresStaffReview bool                `json:"requires_staff_review"`
	ReviewReasons       []string            `json:"review_reasons"`
}

// ByCategory returns the determined services in category c, preserving order.
func (d ServiceDetermination) ByCategory(c Category) []DeterminedService {
	var out []DeterminedService
	for _, s := range d.Services {
		if s.Category == c {
			out = append(out, s)
		}
	}
	return out
}

// PricedService is a determined service after multipliers and any override.
type PricedService struct {
	DeterminedService
	BaseTotal      float64   `json:"base_total"`
	RiskMultiplier float64   `json:"risk_multiplier"`
	AdjustedTotal  float64   `json:"adjusted_total"`
	RiskLevel      RiskLevel `json:"risk_level"`
	PricingFactors []string  `json:"pricing_factors"`
	IsOverridden   bool      `json:"is_overridden"`
	OverrideAmount *float64  `json:"override_amount,omitempty"`
}

// PricingResult aggregates all priced services for one inspection.
type PricingResult struct {
	Services               []PricedService `json:"services"`
	TotalBeforeAdjustments float64         `json:"total_before_adjustments"`
	TotalAfterAdjustments  float64         `json:"total_after_adjustments"`
	AverageRiskMultiplier  float64         `json:"average_risk_multiplier"`
	PricingStatement       string          `json:"pricing_statement"`
}

// Estimate is the full record of one pricing run as persisted by the
// application. The engine itself never builds or retains one.
type Estimate struct {
	ID            string               `json:"id"`
	Reference     string               `json:"reference,omitempty"`
	Input         InspectionInput      `json:"input"`
	Determination ServiceDetermination `json:"determination"`
	Pricing       PricingResult        `json:"pricing"`
	Overrides     []PriceOverride      `json:"overrides,omitempty"`
	Rejected      []RejectedOverride   `json:"rejected_overrides,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// EstimateSummary is a lightweight listing row for stored estimates.
type EstimateSummary struct {
	ID                  string    `json:"id"`
	Reference           string    `json:"reference,omitempty"`
	ServiceCount        int       `json:"service_count"`
	Total               float64   `json:"total"`
	RequiresStaffReview bool      `json:"requires_staff_review"`
	CreatedAt           time.Time `json:"created_at"`
}

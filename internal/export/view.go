// Package export renders estimates for clients and staff as CSV, XLSX, or a
// client-safe JSON view.
package export

import (
	"time"

	"github.com/sells-group/rug-estimator/internal/category"
	"github.com/sells-group/rug-estimator/internal/model"
)

// Options controls which columns an export carries.
type Options struct {
	// Staff includes risk level, multiplier and pricing factors. Client
	// exports never carry them.
	Staff bool
}

// ClientService is a priced service with every internal risk field removed.
type ClientService struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Category           model.Category  `json:"category"`
	CategoryLabel      string          `json:"category_label"`
	Rationale          string          `json:"rationale"`
	Quantity           float64         `json:"quantity"`
	PriceType          model.PriceType `json:"price_type"`
	BaseUnitPrice      float64         `json:"base_unit_price"`
	Total              float64         `json:"total"`
	CanDecline         bool            `json:"can_decline"`
	DeclineConsequence string          `json:"decline_consequence,omitempty"`
}

// ClientEstimate is the client-facing projection of an estimate.
type ClientEstimate struct {
	ID               string          `json:"id,omitempty"`
	Reference        string          `json:"reference,omitempty"`
	ConditionSummary string          `json:"condition_summary"`
	RiskDisclosure   string          `json:"risk_disclosure"`
	Services         []ClientService `json:"services"`
	Total            float64         `json:"total"`
	PricingStatement string          `json:"pricing_statement"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ClientView strips staff-only data from est.
func ClientView(est *model.Estimate) ClientEstimate {
	out := ClientEstimate{
		ID:               est.ID,
		Reference:        est.Reference,
		ConditionSummary: est.Determination.ConditionSummary,
		RiskDisclosure:   est.Determination.RiskDisclosure,
		Services:         make([]ClientService, 0, len(est.Pricing.Services)),
		Total:            est.Pricing.TotalAfterAdjustments,
		PricingStatement: est.Pricing.PricingStatement,
		CreatedAt:        est.CreatedAt,
	}
	for _, s := range est.Pricing.Services {
		out.Services = append(out.Services, ClientService{
			ID:                 s.ID,
			Name:               s.Name,
			Category:           s.Category,
			CategoryLabel:      category.Label(s.Category),
			Rationale:          s.Rationale,
			Quantity:           s.Quantity,
			PriceType:          s.PriceType,
			BaseUnitPrice:      s.BaseUnitPrice,
			Total:              s.AdjustedTotal,
			CanDecline:         s.CanDecline,
			DeclineConsequence: s.DeclineConsequence,
		})
	}
	return out
}

// serviceHeader returns the column names for per-service rows.
func serviceHeader(opts Options) []string {
	h := []string{"service_id", "service", "category", "quantity", "price_type", "unit_price", "total", "optional", "decline_consequence"}
	if opts.Staff {
		h = append(h, "base_total", "risk_level", "risk_multiplier", "pricing_factors", "overridden")
	}
	return h
}

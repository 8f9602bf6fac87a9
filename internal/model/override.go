package model

import "time"

// OverrideReason is the disclosed reason for a manual price adjustment.
type OverrideReason string

const (
	ReasonBundleDiscount    OverrideReason = "Bundle discount applied"
	ReasonLoyaltyAdjustment OverrideReason = "Loyalty customer adjustment"
	ReasonPriceMatch        OverrideReason = "Competitive price match"
	ReasonAdditionalLabor   OverrideReason = "Additional labor required"
	ReasonConditionWorse    OverrideReason = "Condition worse than assessed"
	ReasonConditionBetter   OverrideReason = "Condition better than assessed"
	ReasonManagerApproval   OverrideReason = "Manager approval"
)

// OverrideReasons lists every accepted reason in display order.
func OverrideReasons() []OverrideReason {
	return []OverrideReason{
		ReasonBundleDiscount,
		ReasonLoyaltyAdjustment,
		ReasonPriceMatch,
		ReasonAdditionalLabor,
		ReasonConditionWorse,
		ReasonConditionBetter,
		ReasonManagerApproval,
	}
}

// Valid reports whether r is in the closed reason list.
func (r OverrideReason) Valid() bool {
	for _, known := range OverrideReasons() {
		if r == known {
			return true
		}
	}
	return false
}

// PriceOverride is a staff-issued price correction for one service.
type PriceOverride struct {
	ServiceID     string         `json:"service_id" yaml:"service_id"`
	ServiceName   string         `json:"service_name" yaml:"service_name"`
	OriginalPrice float64        `json:"original_price" yaml:"original_price"`
	AdjustedPrice float64        `json:"adjusted_price" yaml:"adjusted_price"`
	Reason        OverrideReason `json:"reason" yaml:"reason"`
	Notes         string         `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// OverrideValidation is the verdict for a single override.
type OverrideValidation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// RejectedOverride pairs an override with the reason it was refused.
type RejectedOverride struct {
	Override PriceOverride `json:"override"`
	Error    string        `json:"error"`
}

// OverrideRecord is a persisted audit entry for an accepted override.
type OverrideRecord struct {
	ID         string `json:"id"`
	EstimateID string `json:"estimate_id"`
	PriceOverride
	CreatedAt time.Time `json:"created_at"`
}

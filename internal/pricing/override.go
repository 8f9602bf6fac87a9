package pricing

import (
	"math"

	"github.com/sells-group/rug-estimator/internal/model"
)

// Override bounds relative to the original price.
const (
	MaxDiscountRatio = 0.5
	MaxIncreaseRatio = 1.5

	// boundTolerance absorbs float error at the exact bound.
	boundTolerance = 1e-9
)

// Override rejection messages.
const (
	ErrMsgNegativePrice = "Adjusted price cannot be negative"
	ErrMsgZeroPrice     = "A zero price is only allowed with the bundle discount reason"
	ErrMsgTooLow        = "Adjusted price cannot be more than 50% below the original price"
	ErrMsgTooHigh       = "Adjusted price cannot be more than 50% above the original price"
	ErrMsgReason        = "A reason from the approved list is required"
	ErrMsgNotANumber    = "Adjusted price must be a number"
	ErrMsgUnknown       = "Service is not part of this estimate"
	ErrMsgRequired      = "Required services cannot be repriced"
)

// ValidateOverride checks a staff price override against the allowed bounds.
// A failed check is reported in the result, never as an error.
func ValidateOverride(o model.PriceOverride) model.OverrideValidation {
	adj := o.AdjustedPrice

	switch {
	case math.IsNaN(adj) || math.IsInf(adj, 0):
		return reject(ErrMsgNotANumber)
	case adj < 0:
		return reject(ErrMsgNegativePrice)
	case adj == 0:
		if o.Reason != model.ReasonBundleDiscount {
			return reject(ErrMsgZeroPrice)
		}
		return model.OverrideValidation{Valid: true}
	case adj < o.OriginalPrice*MaxDiscountRatio-boundTolerance:
		return reject(ErrMsgTooLow)
	case adj > o.OriginalPrice*MaxIncreaseRatio+boundTolerance:
		return reject(ErrMsgTooHigh)
	case !o.Reason.Valid():
		return reject(ErrMsgReason)
	}
	return model.OverrideValidation{Valid: true}
}

func reject(msg string) model.OverrideValidation {
	return model.OverrideValidation{Valid: false, Error: msg}
}

// BuildOverrideMap validates each override and returns the accepted prices
// keyed by service id along with the rejected entries. A later accepted
// override for the same service replaces an earlier one.
func BuildOverrideMap(overrides []model.PriceOverride) (map[string]float64, []model.RejectedOverride) {
	accepted := make(map[string]float64, len(overrides))
	var rejected []model.RejectedOverride

	for _, o := range overrides {
		v := ValidateOverride(o)
		if !v.Valid {
			rejected = append(rejected, model.RejectedOverride{Override: o, Error: v.Error})
			continue
		}
		accepted[o.ServiceID] = o.AdjustedPrice
	}
	return accepted, rejected
}

// ResolveOverrides ties each override to the service it targets in an
// unadjusted pricing pass. Overrides for services not in priced, or for
// required services, are rejected. Accepted entries take their original
// price and name from the engine so the bounds are checked against the
// computed price, not a caller-supplied one.
func ResolveOverrides(overrides []model.PriceOverride, priced []model.PricedService) ([]model.PriceOverride, []model.RejectedOverride) {
	byID := make(map[string]model.PricedService, len(priced))
	for _, s := range priced {
		byID[s.ID] = s
	}

	var resolved []model.PriceOverride
	var rejected []model.RejectedOverride
	for _, o := range overrides {
		s, ok := byID[o.ServiceID]
		switch {
		case !ok:
			rejected = append(rejected, model.RejectedOverride{Override: o, Error: ErrMsgUnknown})
			continue
		case s.Category == model.CategoryRequired:
			rejected = append(rejected, model.RejectedOverride{Override: o, Error: ErrMsgRequired})
			continue
		}
		o.OriginalPrice = s.AdjustedTotal
		o.ServiceName = s.Name
		resolved = append(resolved, o)
	}
	return resolved, rejected
}

// Package category holds the static service-category registry and the
// keyword classifier for free-text service names.
package category

import (
	"strings"

	"github.com/sells-group/rug-estimator/internal/model"
)

// Info describes how a category is presented and whether its services may
// be declined by the client.
type Info struct {
	Category     model.Category  `json:"category"`
	Label        string          `json:"label"`
	Description  string          `json:"description"`
	CanDecline   bool            `json:"can_decline"`
	RiskLevel    model.RiskLevel `json:"-"`
	DisplayOrder int             `json:"display_order"`
}

var registry = [...]Info{
	{
		Category:     model.CategoryRequired,
		Label:        "Required",
		Description:  "Work that must be performed before the rug can be safely accepted and returned.",
		CanDecline:   false,
		RiskLevel:    model.RiskLow,
		DisplayOrder: 1,
	},
	{
		Category:     model.CategoryHighCost,
		Label:        "Structural / High-Cost",
		Description:  "Structural repair or restoration addressing damage to the foundation or pile.",
		CanDecline:   true,
		RiskLevel:    model.RiskHigh,
		DisplayOrder: 2,
	},
	{
		Category:     model.CategoryRecommended,
		Label:        "Recommended",
		Description:  "Treatment that addresses observed conditions and prevents them from worsening.",
		CanDecline:   true,
		RiskLevel:    model.RiskMedium,
		DisplayOrder: 3,
	},
	{
		Category:     model.CategoryPreventative,
		Label:        "Preventative",
		Description:  "Optional protection that extends the life of the rug.",
		CanDecline:   true,
		RiskLevel:    model.RiskLow,
		DisplayOrder: 4,
	},
}

// Lookup returns the registry entry for c. Unknown categories resolve to the
// recommended entry.
func Lookup(c model.Category) Info {
	for _, info := range registry {
		if info.Category == c {
			return info
		}
	}
	return Lookup(model.CategoryRecommended)
}

// All returns every category in display order.
func All() []Info {
	out := make([]Info, len(registry))
	copy(out, registry[:])
	return out
}

// Label returns the display label for c.
func Label(c model.Category) string {
	return Lookup(c).Label
}

// Precedence returns the sort rank of c (required first).
func Precedence(c model.Category) int {
	return Lookup(c).DisplayOrder
}

type keywordSet struct {
	category model.Category
	keywords []string
}

// classifiers is evaluated in order; the first category with a matching
// keyword wins.
var classifiers = []keywordSet{
	{
		category: model.CategoryRequired,
		keywords: []string{"immersion", "cleaning", "wash", "dusting", "decontamination", "dye stabilization", "moth treatment"},
	},
	{
		category: model.CategoryHighCost,
		keywords: []string{"reweav", "restoration", "replacement", "foundation", "structural", "rebuild"},
	},
	{
		category: model.CategoryPreventative,
		keywords: []string{"pad", "protector", "protection", "prevention", "repellent", "storage"},
	},
	{
		category: model.CategoryRecommended,
		keywords: []string{"stain", "odor", "repair", "binding", "stabilization", "treatment"},
	},
}

// CategorizeService classifies a free-text service name by keyword. Names
// that match nothing are treated as recommended.
func CategorizeService(name string) model.Category {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return model.CategoryRecommended
	}
	for _, cls := range classifiers {
		for _, kw := range cls.keywords {
			if strings.Contains(lower, kw) {
				return cls.category
			}
		}
	}
	return model.CategoryRecommended
}

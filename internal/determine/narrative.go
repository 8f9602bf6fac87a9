package determine

import (
	"fmt"
	"strings"

	"github.com/sells-group/rug-estimator/internal/model"
)

const goodConditionSummary = "Inspection found the rug in good overall condition with no significant issues noted."

// conditionSummary lists every observed issue in flag declaration order.
func conditionSummary(c model.Conditions) string {
	var issues []string
	for _, f := range c.Flags() {
		if !f.Severity.Present() {
			continue
		}
		if f.Boolean {
			issues = append(issues, f.Label)
			continue
		}
		issues = append(issues, string(f.Severity)+" "+f.Label)
	}
	if len(issues) == 0 {
		return goodConditionSummary
	}
	return "Inspection found " + joinList(issues) + "."
}

// riskDisclosure is built from a general clause, an optional structural
// count clause, and the authorization clause, in that order.
func riskDisclosure(highCost int) string {
	parts := []string{
		"Cleaning and repair of handmade and aged textiles carries inherent risk, and pre-existing weaknesses may become more visible after treatment.",
	}
	if highCost > 0 {
		parts = append(parts, fmt.Sprintf(
			"This estimate includes %s addressing existing damage; results depend on the condition of the surrounding foundation.",
			pluralize(highCost, "structural service", "structural services"),
		))
	}
	parts = append(parts, "Work begins only after you authorize the services listed in this estimate.")
	return strings.Join(parts, " ")
}

// joinList renders "a", "a and b", or "a, b and c".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}

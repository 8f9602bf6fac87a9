package pricing

import (
	"math"
	"strings"

	"github.com/sells-group/rug-estimator/internal/model"
)

// Material multiplier bounds.
const (
	MinMaterialMultiplier = 0.85
	MaxMaterialMultiplier = 1.8
)

var typeMultipliers = map[model.MaterialType]float64{
	model.MaterialDelicateFiber: 1.40,
	model.MaterialCommonFiber:   1.00,
	model.MaterialSynthetic:     0.90,
	model.MaterialMixed:         1.10,
	model.MaterialTypeUnknown:   1.15,
}

var constructionMultipliers = map[model.Construction]float64{
	model.ConstructionHandMadeHighSkill: 1.30,
	model.ConstructionHandMadeStandard:  1.15,
	model.ConstructionMachineMade:       0.95,
	model.ConstructionFlatWeave:         1.00,
	model.ConstructionUnknown:           1.10,
}

var ageMultipliers = map[model.Age]float64{
	model.AgeNew:         0.95,
	model.AgeModern:      1.00,
	model.AgeSemiAntique: 1.20,
	model.AgeAntique:     1.40,
	model.AgeUnknown:     1.10,
}

var valueMultipliers = map[model.Value]float64{
	model.ValueStandard: 1.00,
	model.ValuePremium:  1.20,
	model.ValueHeirloom: 1.50,
	model.ValueUnknown:  1.10,
}

// lookup returns table[k], treating values outside the table as the
// table's unknown entry.
func lookup[K comparable](table map[K]float64, k, unknown K) float64 {
	if v, ok := table[k]; ok {
		return v
	}
	return table[unknown]
}

// MaterialMultiplier combines the four material axes. The product is damped
// with a square root and clamped to [MinMaterialMultiplier, MaxMaterialMultiplier].
func MaterialMultiplier(m model.Material) float64 {
	product := lookup(typeMultipliers, m.Type, model.MaterialTypeUnknown) *
		lookup(constructionMultipliers, m.Construction, model.ConstructionUnknown) *
		lookup(ageMultipliers, m.Age, model.AgeUnknown) *
		lookup(valueMultipliers, m.Value, model.ValueUnknown)

	return clamp(math.Sqrt(product), MinMaterialMultiplier, MaxMaterialMultiplier)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// describeMaterial renders a client-safe description such as
// "antique hand-knotted delicate-fiber rug".
func describeMaterial(m model.Material) string {
	var words []string

	switch m.Age {
	case model.AgeAntique:
		words = append(words, "antique")
	case model.AgeSemiAntique:
		words = append(words, "semi-antique")
	}
	switch m.Construction {
	case model.ConstructionHandMadeHighSkill:
		words = append(words, "finely hand-knotted")
	case model.ConstructionHandMadeStandard:
		words = append(words, "handmade")
	case model.ConstructionMachineMade:
		words = append(words, "machine-made")
	case model.ConstructionFlatWeave:
		words = append(words, "flat-woven")
	}
	switch m.Type {
	case model.MaterialDelicateFiber:
		words = append(words, "delicate-fiber")
	case model.MaterialCommonFiber:
		words = append(words, "natural-fiber")
	case model.MaterialSynthetic:
		words = append(words, "synthetic")
	case model.MaterialMixed:
		words = append(words, "mixed-fiber")
	}

	words = append(words, "rug")
	return strings.Join(words, " ")
}

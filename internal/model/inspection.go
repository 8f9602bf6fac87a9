package model

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Severity is the observed intensity of a condition flag.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// severityRank orders severities; an absent severity ranks below none.
var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityMinor:    1,
	SeverityModerate: 2,
	SeveritySevere:   3,
}

// Rank returns the numeric ordering of the severity (none=0 .. severe=3).
// Unknown or absent values return -1.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank() && s.Valid()
}

// Present reports whether s describes an observed issue (anything above none).
func (s Severity) Present() bool {
	return s.Rank() > 0
}

// boolSeverity maps a boolean condition onto the severity scale.
func boolSeverity(b bool) Severity {
	if b {
		return SeveritySevere
	}
	return SeverityNone
}

// MaterialType classifies the fiber content of the item.
type MaterialType string

const (
	MaterialDelicateFiber MaterialType = "delicate_fiber" // silk, viscose, bamboo silk
	MaterialCommonFiber   MaterialType = "common_fiber"   // wool, cotton
	MaterialSynthetic     MaterialType = "synthetic"
	MaterialMixed         MaterialType = "mixed"
	MaterialTypeUnknown   MaterialType = "unknown"
)

// Construction classifies how the item was made.
type Construction string

const (
	ConstructionHandMadeHighSkill Construction = "hand_made_high_skill"
	ConstructionHandMadeStandard  Construction = "hand_made_standard"
	ConstructionMachineMade       Construction = "machine_made"
	ConstructionFlatWeave         Construction = "flat_weave"
	ConstructionUnknown           Construction = "unknown"
)

// Age classifies how old the item is.
type Age string

const (
	AgeNew         Age = "new"
	AgeModern      Age = "modern"
	AgeSemiAntique Age = "semi_antique"
	AgeAntique     Age = "antique"
	AgeUnknown     Age = "unknown"
)

// Value classifies the monetary or sentimental value tier of the item.
type Value string

const (
	ValueStandard Value = "standard"
	ValuePremium  Value = "premium"
	ValueHeirloom Value = "heirloom"
	ValueUnknown  Value = "unknown"
)

// Material is the four-axis material classification of an inspected item.
type Material struct {
	Type         MaterialType `json:"type" yaml:"type"`
	Construction Construction `json:"construction" yaml:"construction"`
	Age          Age          `json:"age" yaml:"age"`
	Value        Value        `json:"value" yaml:"value"`
}

// ConditionKey names one condition flag.
type ConditionKey string

const (
	ConditionSoiling            ConditionKey = "soiling"
	ConditionStaining           ConditionKey = "staining"
	ConditionPetUrine           ConditionKey = "pet_urine"
	ConditionFringeDamage       ConditionKey = "fringe_damage"
	ConditionEdgeDamage         ConditionKey = "edge_damage"
	ConditionHolesTears         ConditionKey = "holes_tears"
	ConditionWear               ConditionKey = "wear"
	ConditionColorRun           ConditionKey = "color_run"
	ConditionMothDamage         ConditionKey = "moth_damage"
	ConditionDryRot             ConditionKey = "dry_rot"
	ConditionPestsInEnvironment ConditionKey = "pests_in_environment"
)

// Conditions is the fixed set of condition flags captured during inspection.
// Severity fields must always be set; the empty string means the flag was
// never captured and fails Validate.
type Conditions struct {
	Soiling            Severity `json:"soiling" yaml:"soiling"`
	Staining           Severity `json:"staining" yaml:"staining"`
	PetUrine           Severity `json:"pet_urine" yaml:"pet_urine"`
	FringeDamage       Severity `json:"fringe_damage" yaml:"fringe_damage"`
	EdgeDamage         Severity `json:"edge_damage" yaml:"edge_damage"`
	HolesTears         Severity `json:"holes_tears" yaml:"holes_tears"`
	Wear               Severity `json:"wear" yaml:"wear"`
	ColorRun           Severity `json:"color_run" yaml:"color_run"`
	MothDamage         Severity `json:"moth_damage" yaml:"moth_damage"`
	DryRot             bool     `json:"dry_rot" yaml:"dry_rot"`
	PestsInEnvironment bool     `json:"pests_in_environment" yaml:"pests_in_environment"`
}

// ConditionFlag is one condition flag in declaration order.
type ConditionFlag struct {
	Key      ConditionKey
	Label    string
	Severity Severity
	Boolean  bool
}

// Flags returns every condition flag in declaration order. Boolean flags
// report severe when set and none otherwise.
func (c Conditions) Flags() []ConditionFlag {
	return []ConditionFlag{
		{Key: ConditionSoiling, Label: "soiling", Severity: c.Soiling},
		{Key: ConditionStaining, Label: "staining", Severity: c.Staining},
		{Key: ConditionPetUrine, Label: "pet urine contamination", Severity: c.PetUrine},
		{Key: ConditionFringeDamage, Label: "fringe damage", Severity: c.FringeDamage},
		{Key: ConditionEdgeDamage, Label: "edge damage", Severity: c.EdgeDamage},
		{Key: ConditionHolesTears, Label: "holes or tears", Severity: c.HolesTears},
		{Key: ConditionWear, Label: "pile wear", Severity: c.Wear},
		{Key: ConditionColorRun, Label: "color run", Severity: c.ColorRun},
		{Key: ConditionMothDamage, Label: "moth damage", Severity: c.MothDamage},
		{Key: ConditionDryRot, Label: "dry rot", Severity: boolSeverity(c.DryRot), Boolean: true},
		{Key: ConditionPestsInEnvironment, Label: "pests in the environment", Severity: boolSeverity(c.PestsInEnvironment), Boolean: true},
	}
}

// Severity returns the severity for key. Boolean flags map to severe/none.
// Unknown keys return none.
func (c Conditions) Severity(key ConditionKey) Severity {
	for _, f := range c.Flags() {
		if f.Key == key {
			return f.Severity
		}
	}
	return SeverityNone
}

// MostSevere returns the highest severity across every tracked flag.
func (c Conditions) MostSevere() Severity {
	worst := SeverityNone
	for _, f := range c.Flags() {
		if f.Severity.Rank() > worst.Rank() {
			worst = f.Severity
		}
	}
	return worst
}

// AllClear returns Conditions with every severity set to none and every
// boolean false.
func AllClear() Conditions {
	return Conditions{
		Soiling:      SeverityNone,
		Staining:     SeverityNone,
		PetUrine:     SeverityNone,
		FringeDamage: SeverityNone,
		EdgeDamage:   SeverityNone,
		HolesTears:   SeverityNone,
		Wear:         SeverityNone,
		ColorRun:     SeverityNone,
		MothDamage:   SeverityNone,
	}
}

// InspectionInput is an immutable snapshot of one inspected item for one
// pricing run.
type InspectionInput struct {
	Material      Material   `json:"material" yaml:"material"`
	Conditions    Conditions `json:"conditions" yaml:"conditions"`
	SquareFootage float64    `json:"square_footage" yaml:"square_footage"`
}

// Validate checks the input at an application boundary. The engine assumes
// well-formed input and never calls this itself.
func (in InspectionInput) Validate() error {
	var errs []string

	switch in.Material.Type {
	case MaterialDelicateFiber, MaterialCommonFiber, MaterialSynthetic, MaterialMixed, MaterialTypeUnknown:
	default:
		errs = append(errs, "material.type "+quote(string(in.Material.Type))+" is not recognized")
	}
	switch in.Material.Construction {
	case ConstructionHandMadeHighSkill, ConstructionHandMadeStandard, ConstructionMachineMade, ConstructionFlatWeave, ConstructionUnknown:
	default:
		errs = append(errs, "material.construction "+quote(string(in.Material.Construction))+" is not recognized")
	}
	switch in.Material.Age {
	case AgeNew, AgeModern, AgeSemiAntique, AgeAntique, AgeUnknown:
	default:
		errs = append(errs, "material.age "+quote(string(in.Material.Age))+" is not recognized")
	}
	switch in.Material.Value {
	case ValueStandard, ValuePremium, ValueHeirloom, ValueUnknown:
	default:
		errs = append(errs, "material.value "+quote(string(in.Material.Value))+" is not recognized")
	}

	for _, f := range in.Conditions.Flags() {
		if f.Boolean {
			continue
		}
		if f.Severity == "" {
			errs = append(errs, "conditions."+string(f.Key)+" is missing")
			continue
		}
		if !f.Severity.Valid() {
			errs = append(errs, "conditions."+string(f.Key)+" has unknown severity "+quote(string(f.Severity)))
		}
	}

	if math.IsNaN(in.SquareFootage) || math.IsInf(in.SquareFootage, 0) || in.SquareFootage <= 0 {
		errs = append(errs, "square_footage must be a positive number")
	}

	if len(errs) > 0 {
		return eris.Errorf("inspection: invalid input: %s", strings.Join(errs, "; "))
	}
	return nil
}

func quote(s string) string {
	return `"` + s + `"`
}

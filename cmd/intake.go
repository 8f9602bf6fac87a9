package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/rug-estimator/internal/intake"
	"github.com/sells-group/rug-estimator/internal/model"
)

var (
	intakeReport       string
	intakeCharset      string
	intakeSqFt         float64
	intakeType         string
	intakeConstruction string
	intakeAge          string
	intakeValue        string
	intakeFindings     bool
)

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Draft an inspection file from free-text inspection notes",
	Long:  "Scans free-text notes for condition keywords and writes a draft inspection as YAML. The draft must be reviewed before pricing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(intakeReport)
		if err != nil {
			return eris.Wrapf(err, "open %s", intakeReport)
		}
		defer f.Close() //nolint:errcheck

		material := model.Material{
			Type:         model.MaterialType(intakeType),
			Construction: model.Construction(intakeConstruction),
			Age:          model.Age(intakeAge),
			Value:        model.Value(intakeValue),
		}
		return draftInspection(f, intakeCharset, material, intakeSqFt, intakeFindings, cmd.OutOrStdout())
	},
}

func init() {
	intakeCmd.Flags().StringVar(&intakeReport, "report", "", "inspection notes file")
	intakeCmd.Flags().StringVar(&intakeCharset, "charset", "", "notes encoding, e.g. windows-1252 (default utf-8)")
	intakeCmd.Flags().Float64Var(&intakeSqFt, "sqft", 0, "rug area in square feet")
	intakeCmd.Flags().StringVar(&intakeType, "material", string(model.MaterialTypeUnknown), "material type")
	intakeCmd.Flags().StringVar(&intakeConstruction, "construction", string(model.ConstructionUnknown), "construction")
	intakeCmd.Flags().StringVar(&intakeAge, "age", string(model.AgeUnknown), "age")
	intakeCmd.Flags().StringVar(&intakeValue, "value", string(model.ValueUnknown), "value tier")
	intakeCmd.Flags().BoolVar(&intakeFindings, "findings", false, "also print the matched phrases")
	_ = intakeCmd.MarkFlagRequired("report")
	rootCmd.AddCommand(intakeCmd)
}

type intakeDraft struct {
	model.InspectionInput `yaml:",inline"`
	Findings              []intake.Finding `yaml:"findings,omitempty"`
}

func draftInspection(r io.Reader, charset string, m model.Material, sqft float64, withFindings bool, w io.Writer) error {
	text, err := intake.ReadReport(r, charset)
	if err != nil {
		return err
	}
	res := intake.Parse(text)

	draft := intakeDraft{InspectionInput: model.InspectionInput{
		Material:      m,
		Conditions:    res.Conditions,
		SquareFootage: sqft,
	}}
	if withFindings {
		draft.Findings = res.Findings
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(draft); err != nil {
		return eris.Wrap(err, "intake: encode draft")
	}
	return eris.Wrap(enc.Close(), "intake: close encoder")
}

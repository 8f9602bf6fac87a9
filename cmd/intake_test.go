package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/rug-estimator/internal/model"
)

func TestDraftInspection(t *testing.T) {
	notes := "Heavy staining near the center. Light fringe damage on one end. No moth damage found."
	m := model.Material{Type: model.MaterialCommonFiber, Construction: model.ConstructionHandMadeStandard, Age: model.AgeModern, Value: model.ValueStandard}

	var out bytes.Buffer
	require.NoError(t, draftInspection(strings.NewReader(notes), "", m, 40, true, &out))

	var draft intakeDraft
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &draft))
	assert.Equal(t, model.SeveritySevere, draft.Conditions.Staining)
	assert.Equal(t, model.SeverityMinor, draft.Conditions.FringeDamage)
	assert.Equal(t, model.SeverityNone, draft.Conditions.MothDamage)
	assert.InDelta(t, 40.0, draft.SquareFootage, 0.001)
	assert.NotEmpty(t, draft.Findings)
	assert.NoError(t, draft.InspectionInput.Validate())
}

func TestDraftInspection_BadCharset(t *testing.T) {
	err := draftInspection(strings.NewReader("x"), "klingon", model.Material{}, 1, false, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported charset")
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/rug-estimator/internal/estimate"
	"github.com/sells-group/rug-estimator/internal/export"
	"github.com/sells-group/rug-estimator/internal/model"
	"github.com/sells-group/rug-estimator/internal/store"
)

func savedEstimate(t *testing.T, st store.Store) *model.Estimate {
	t.Helper()
	req, err := loadRequest(writeFile(t, t.TempDir(), "INV-5.yaml", stainedYAML))
	require.NoError(t, err)
	est, err := runPrice(context.Background(), estimate.NewService(st), req, []string{"stain-treatment=50:Competitive price match"}, true)
	require.NoError(t, err)
	require.NotEmpty(t, est.ID)
	return est
}

func TestListEstimates(t *testing.T) {
	st := newTestStore(t)
	est := savedEstimate(t, st)

	var out bytes.Buffer
	require.NoError(t, listEstimates(context.Background(), st, store.EstimateFilter{}, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], est.ID)
	assert.Contains(t, lines[1], "INV-5")
}

func TestShowEstimate(t *testing.T) {
	st := newTestStore(t)
	est := savedEstimate(t, st)
	ctx := context.Background()

	var client bytes.Buffer
	require.NoError(t, showEstimate(ctx, st, est.ID, false, &client))
	var view export.ClientEstimate
	require.NoError(t, json.Unmarshal(client.Bytes(), &view))
	assert.Equal(t, "INV-5", view.Reference)
	assert.NotContains(t, client.String(), "risk_level")

	var staff bytes.Buffer
	require.NoError(t, showEstimate(ctx, st, est.ID, true, &staff))
	var full model.Estimate
	require.NoError(t, json.Unmarshal(staff.Bytes(), &full))
	require.Len(t, full.Overrides, 1)
	assert.Equal(t, "stain-treatment", full.Overrides[0].ServiceID)

	err := showEstimate(ctx, st, "missing", false, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestExportEstimate(t *testing.T) {
	st := newTestStore(t)
	est := savedEstimate(t, st)
	dir := t.TempDir()
	ctx := context.Background()

	csvPath := filepath.Join(dir, "out.csv")
	require.NoError(t, exportEstimate(ctx, st, est.ID, "csv", csvPath, export.Options{}))
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stain-treatment")
	assert.NotContains(t, string(data), "risk_level")

	xlsxPath := filepath.Join(dir, "out.xlsx")
	require.NoError(t, exportEstimate(ctx, st, est.ID, "xlsx", xlsxPath, export.Options{Staff: true}))
	f, err := xlsx.OpenFile(xlsxPath)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)
	assert.Equal(t, "Services", f.Sheets[0].Name)

	err = exportEstimate(ctx, st, est.ID, "pdf", filepath.Join(dir, "out.pdf"), export.Options{})
	assert.Error(t, err)
}

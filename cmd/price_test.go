package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rug-estimator/internal/estimate"
	"github.com/sells-group/rug-estimator/internal/model"
	"github.com/sells-group/rug-estimator/internal/pricing"
)

func TestParseOverrideSpec(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		want       overrideSpec
		wantErrSub string
	}{
		{"canonical", "stain-treatment=50:Competitive price match", overrideSpec{"stain-treatment", 50, model.ReasonPriceMatch}, ""},
		{"case insensitive reason", "dusting=0:bundle discount applied", overrideSpec{"dusting", 0, model.ReasonBundleDiscount}, ""},
		{"unknown reason kept", "dusting=10:because", overrideSpec{"dusting", 10, "because"}, ""},
		{"missing equals", "dusting", overrideSpec{}, "want service-id=amount:reason"},
		{"missing reason", "dusting=10", overrideSpec{}, "missing reason"},
		{"bad amount", "dusting=ten:Manager approval", overrideSpec{}, "invalid amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOverrideSpec(tt.in)
			if tt.wantErrSub != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrSub)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunPrice_ResolvesOverrides(t *testing.T) {
	dir := t.TempDir()
	req, err := loadRequest(writeFile(t, dir, "rug.yaml", stainedYAML))
	require.NoError(t, err)

	est, err := runPrice(context.Background(), estimate.NewService(nil), req,
		[]string{"stain-treatment=50:Competitive price match", "dusting=1:Competitive price match"}, false)
	require.NoError(t, err)

	require.Len(t, est.Overrides, 1)
	assert.InDelta(t, 55.44, est.Overrides[0].OriginalPrice, 0.001)
	assert.Equal(t, "Spot & Stain Treatment", est.Overrides[0].ServiceName)
	require.Len(t, est.Rejected, 1)
	assert.Equal(t, "dusting", est.Rejected[0].Override.ServiceID)
}

func TestRunPrice_IneligibleServices(t *testing.T) {
	dir := t.TempDir()
	req, err := loadRequest(writeFile(t, dir, "rug.yaml", stainedYAML))
	require.NoError(t, err)

	est, err := runPrice(context.Background(), estimate.NewService(nil), req,
		[]string{"hole-reweaving=100:Manager approval", "full-immersion-cleaning=130:Manager approval"}, false)
	require.NoError(t, err)

	assert.Empty(t, est.Overrides)
	require.Len(t, est.Rejected, 2)
	assert.Equal(t, pricing.ErrMsgUnknown, est.Rejected[0].Error)
	assert.Equal(t, pricing.ErrMsgRequired, est.Rejected[1].Error)
}

func TestWriteEstimate_ClientAndStaff(t *testing.T) {
	dir := t.TempDir()
	req, err := loadRequest(writeFile(t, dir, "rug.yaml", stainedYAML))
	require.NoError(t, err)
	est, err := runPrice(context.Background(), estimate.NewService(nil), req, []string{"dusting=1:Manager approval"}, false)
	require.NoError(t, err)

	var client bytes.Buffer
	require.NoError(t, writeEstimate(&client, est, false))
	assert.NotContains(t, client.String(), "risk_multiplier")
	assert.Contains(t, client.String(), "override rejected for dusting")

	var staff bytes.Buffer
	require.NoError(t, writeEstimate(&staff, est, true))
	var decoded model.Estimate
	require.NoError(t, json.Unmarshal(staff.Bytes(), &decoded))
	assert.NotZero(t, decoded.Pricing.Services[0].RiskMultiplier)
}

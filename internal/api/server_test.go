package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rug-estimator/internal/estimate"
	"github.com/sells-group/rug-estimator/internal/model"
	"github.com/sells-group/rug-estimator/internal/store"
)

const baselineInput = `{
	"material": {"type": "common_fiber", "construction": "hand_made_standard", "age": "modern", "value": "standard"},
	"conditions": {"soiling": "none", "staining": "moderate", "pet_urine": "none", "fringe_damage": "none",
		"edge_damage": "none", "holes_tears": "none", "wear": "none", "color_run": "none", "moth_damage": "none",
		"dry_rot": false, "pests_in_environment": false},
	"square_footage": 40
}`

func newTestServer(t *testing.T, withStore bool, cfg Config) (*httptest.Server, store.Store) {
	t.Helper()
	var st store.Store
	if withStore {
		s, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() }) //nolint:errcheck
		require.NoError(t, s.Migrate(context.Background()))
		st = s
	}
	srv := httptest.NewServer(NewServer(estimate.NewService(st), st, cfg).Routes())
	t.Cleanup(srv.Close)
	return srv, st
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{})

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestDetermine(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/determine", baselineInput)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	services, ok := body["services"].([]any)
	require.True(t, ok)
	assert.Len(t, services, 3)
	assert.NotContains(t, body, "requires_staff_review")

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/v1/determine?view=staff", baselineInput)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "requires_staff_review")
}

func TestDetermine_Errors(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"material":`, http.StatusBadRequest, "invalid_body"},
		{"unknown field", `{"colour":"red"}`, http.StatusBadRequest, "invalid_body"},
		{"invalid input", `{"square_footage": 10}`, http.StatusUnprocessableEntity, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/determine", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCode, body["error"])
			assert.NotEmpty(t, body["request_id"])
		})
	}
}

func TestPrice_ClientViewHidesRisk(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{})

	resp, err := http.Post(srv.URL+"/v1/price", "application/json", strings.NewReader(`{"input":`+baselineInput+`}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "stain-treatment")
	for _, forbidden := range []string{"risk_level", "risk_multiplier", "pricing_factors"} {
		assert.NotContains(t, raw, forbidden)
	}
}

func TestPrice_StaffViewWithOverrides(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{})

	body := `{"input":` + baselineInput + `,"overrides":[
		{"service_id":"stain-treatment","original_price":55.44,"adjusted_price":50,"reason":"Competitive price match"},
		{"service_id":"dusting","original_price":30,"adjusted_price":1,"reason":"Competitive price match"}
	]}`
	resp, out := doJSON(t, http.MethodPost, srv.URL+"/v1/price?view=staff", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rejected, ok := out["rejected_overrides"].([]any)
	require.True(t, ok)
	assert.Len(t, rejected, 1)

	est, ok := out["estimate"].(map[string]any)
	require.True(t, ok)
	pricing, ok := est["pricing"].(map[string]any)
	require.True(t, ok)
	services, ok := pricing["services"].([]any)
	require.True(t, ok)

	var found bool
	for _, s := range services {
		svc := s.(map[string]any)
		if svc["id"] == "stain-treatment" {
			found = true
			assert.Equal(t, true, svc["is_overridden"])
			assert.InDelta(t, 50.0, svc["adjusted_total"], 0.001)
			assert.Contains(t, svc, "risk_level")
		}
	}
	assert.True(t, found)
}

func TestPrice_SaveRequiresStore(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/price", `{"input":`+baselineInput+`,"save":true}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "no_store", body["error"])

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/estimates/abc", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPrice_SaveAndFetch(t *testing.T) {
	t.Parallel()
	srv, st := newTestServer(t, true, Config{})

	body := `{"reference":"INV-42","input":` + baselineInput + `,"save":true,"overrides":[
		{"service_id":"stain-treatment","original_price":55.44,"adjusted_price":50,"reason":"Competitive price match"}
	]}`
	resp, out := doJSON(t, http.MethodPost, srv.URL+"/v1/price", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	est := out["estimate"].(map[string]any)
	id, _ := est["id"].(string)
	require.NotEmpty(t, id)

	list, err := st.ListEstimates(context.Background(), store.EstimateFilter{Reference: "INV-42"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	resp, got := doJSON(t, http.MethodGet, srv.URL+"/v1/estimates/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "INV-42", got["reference"])
	assert.NotContains(t, got, "determination")

	resp, got = doJSON(t, http.MethodGet, srv.URL+"/v1/estimates/"+id+"?view=staff", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, got, "determination")

	req, err := http.Get(srv.URL + "/v1/estimates/" + id + "/overrides")
	require.NoError(t, err)
	defer req.Body.Close() //nolint:errcheck
	var recs []model.OverrideRecord
	require.NoError(t, json.NewDecoder(req.Body).Decode(&recs))
	require.Len(t, recs, 1)
	assert.Equal(t, model.ReasonPriceMatch, recs[0].Reason)

	resp, got = doJSON(t, http.MethodGet, srv.URL+"/v1/estimates/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", got["error"])
}

func TestListEstimates_BadParams(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, true, Config{})

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/v1/estimates?limit=-2", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_limit", body["error"])

	resp, err := http.Get(srv.URL + "/v1/estimates")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	var list []model.EstimateSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Empty(t, list)
}

func TestValidateOverride(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{})

	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{"accepted", `{"service_id":"x","original_price":100,"adjusted_price":50,"reason":"Competitive price match"}`, true},
		{"too low", `{"service_id":"x","original_price":100,"adjusted_price":49.99,"reason":"Competitive price match"}`, false},
		{"zero bundle", `{"service_id":"x","original_price":100,"adjusted_price":0,"reason":"Bundle discount applied"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/overrides/validate", tt.body)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.valid, body["valid"])
		})
	}
}

func TestCategorize(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{})

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/v1/categorize?name=Hole+Reweaving", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "high_cost", body["category"])
	assert.Equal(t, "Structural / High-Cost", body["label"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/categorize", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "missing_name", body["error"])
}

func TestCategories(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{})

	resp, err := http.Get(srv.URL + "/v1/categories")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	var infos []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	require.Len(t, infos, 4)
	assert.Equal(t, "required", infos[0]["category"])
	assert.NotContains(t, infos[0], "risk_level")
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{RateLimit: 0.001, RateBurst: 1})

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate_limited", body["error"])
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestCORS(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{AllowedOrigins: []string{"https://shop.example"}})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/price", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "https://shop.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func findService(t *testing.T, services []any, id string) map[string]any {
	t.Helper()
	for _, s := range services {
		svc := s.(map[string]any)
		if svc["id"] == id {
			return svc
		}
	}
	t.Fatalf("service %s missing from response", id)
	return nil
}

func TestPrice_SuppliedServicesUseCatalog(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{})

	body := `{"input":` + baselineInput + `,"services":[
		{"id":"full-immersion-cleaning","category":"required","can_decline":true,"base_unit_price":0.01,"quantity":1},
		{"id":"stain-treatment","category":"required","can_decline":false,"base_unit_price":999,"quantity":1}
	]}`
	resp, out := doJSON(t, http.MethodPost, srv.URL+"/v1/price", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	est := out["estimate"].(map[string]any)
	services := est["services"].([]any)
	require.Len(t, services, 2)

	clean := findService(t, services, "full-immersion-cleaning")
	assert.Equal(t, false, clean["can_decline"])
	assert.InDelta(t, 3.5, clean["base_unit_price"], 0.001)
	assert.InDelta(t, 40.0, clean["quantity"], 0.001)

	stain := findService(t, services, "stain-treatment")
	assert.Equal(t, "recommended", stain["category"])
	assert.Equal(t, true, stain["can_decline"])
	assert.InDelta(t, 55.44, stain["total"], 0.001)
}

func TestPrice_UnknownSuppliedService(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{})

	body := `{"input":` + baselineInput + `,"services":[{"id":"gold-plating"}]}`
	resp, out := doJSON(t, http.MethodPost, srv.URL+"/v1/price", body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "unknown_service", out["error"])
}

func TestPrice_OverrideBoundsUseComputedPrice(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, false, Config{})

	body := `{"input":` + baselineInput + `,"overrides":[
		{"service_id":"stain-treatment","original_price":1000,"adjusted_price":600,"reason":"Manager approval"},
		{"service_id":"nonexistent","original_price":10,"adjusted_price":9,"reason":"Manager approval"}
	]}`
	resp, out := doJSON(t, http.MethodPost, srv.URL+"/v1/price?view=staff", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rejected := out["rejected_overrides"].([]any)
	require.Len(t, rejected, 2)

	est := out["estimate"].(map[string]any)
	services := est["pricing"].(map[string]any)["services"].([]any)
	stain := findService(t, services, "stain-treatment")
	assert.Equal(t, false, stain["is_overridden"])
	assert.InDelta(t, 55.44, stain["adjusted_total"], 0.001)
}

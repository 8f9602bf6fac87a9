package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/rug-estimator/internal/config"
)

func TestNewAPIServer(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })
	cfg = &config.Config{Server: config.ServerConfig{Port: 8080, RateLimit: 0, RequestTimeoutSecs: 5}}

	srv := httptest.NewServer(newAPIServer(nil).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	assert.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

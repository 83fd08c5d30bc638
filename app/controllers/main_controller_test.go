package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zorinapay/paybridge/internal/pkg/env"
)

func TestHealth(t *testing.T) {
	app, _ := setupTestApp(t, "http://unused")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"status":"ok"`)
}

func TestConfigExposesOnlyPublicValues(t *testing.T) {
	app, _ := setupTestApp(t, "http://unused")
	env.Env["SQUARE_APP_ID"] = "sq0idp-public"
	env.Env["SQUARE_APP_SECRET"] = "sq0csp-very-secret"

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/config", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "sq0idp-public")
	assert.NotContains(t, body, "sq0csp-very-secret")
}

func TestInitReportsDefaultMerchant(t *testing.T) {
	app, store := setupTestApp(t, "http://unused")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/init", nil))
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), `"initialized":false`)

	connectSeller(t, store, "M_DEFAULT")
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/init", nil))
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), `"initialized":true`)
}

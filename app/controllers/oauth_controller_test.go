package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSquareOAuth serves the token and locations endpoints and counts
// token exchanges.
func fakeSquareOAuth(t *testing.T, exchanges *int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(exchanges, 1)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"merchant_id":   "M_NEW",
			"expires_at":    "2031-01-02T15:04:05Z",
		})
	})
	mux.HandleFunc("/v2/locations", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"locations":[{"id":"L1","name":"Studio","status":"ACTIVE"}]}`))
	})
	return httptest.NewServer(mux)
}

func TestOAuthAuthorizeSetsStateCookieAndRedirects(t *testing.T) {
	app, _ := setupTestApp(t, "https://connect.squareupsandbox.com")

	req := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	location := resp.Header.Get("Location")
	redirect, err := url.Parse(location)
	require.NoError(t, err)
	assert.Equal(t, "/oauth2/authorize", redirect.Path)
	state := redirect.Query().Get("state")
	assert.NotEmpty(t, state)
	assert.Equal(t, "false", redirect.Query().Get("session"))

	var stateCookie string
	for _, c := range resp.Cookies() {
		if c.Name == "oauth_state" {
			stateCookie = c.Value
			assert.True(t, c.HttpOnly)
		}
	}
	assert.Equal(t, state, stateCookie, "cookie must carry the redirected state")
}

func TestOAuthCallbackMissingCode(t *testing.T) {
	var exchanges int32
	srv := fakeSquareOAuth(t, &exchanges)
	defer srv.Close()

	app, _ := setupTestApp(t, srv.URL)

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback?state=abc", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "abc"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, atomic.LoadInt32(&exchanges))
}

func TestOAuthCallbackStateMismatch(t *testing.T) {
	var exchanges int32
	srv := fakeSquareOAuth(t, &exchanges)
	defer srv.Close()

	app, _ := setupTestApp(t, srv.URL)

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback?code=c&state=evil", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "expected"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, atomic.LoadInt32(&exchanges), "no token exchange on state mismatch")

	// Missing cookie entirely is also a mismatch
	req = httptest.NewRequest(http.MethodGet, "/oauth/callback?code=c&state=abc", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, atomic.LoadInt32(&exchanges))
}

func TestOAuthCallbackSuccessStoresSeller(t *testing.T) {
	var exchanges int32
	srv := fakeSquareOAuth(t, &exchanges)
	defer srv.Close()

	app, store := setupTestApp(t, srv.URL)

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback?code=the-code&state=abc", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "abc"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://pay.example.com?merchant_id=M_NEW", resp.Header.Get("Location"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&exchanges))

	stored, err := store.Get(context.Background(), "M_NEW")
	require.NoError(t, err)
	assert.Equal(t, "new-access", stored.AccessToken)
	assert.Equal(t, "new-refresh", stored.RefreshToken)
	require.Len(t, stored.Locations, 1)
	assert.Equal(t, "L1", stored.Locations[0].ID)
	require.NotNil(t, stored.ExpiresAt)
}

package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerCardsFailOpen(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/cards", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors":[{"category":"API_ERROR","code":"INTERNAL","detail":"boom"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	app, store := setupTestApp(t, srv.URL)
	connectSeller(t, store, "M_1")

	req := httptest.NewRequest(http.MethodGet, "/api/customers/C1/cards", nil)
	req.Header.Set("x-merchant-id", "M_1")
	resp, err := app.Test(req)
	require.NoError(t, err)

	// Lookup failure degrades to an empty, explicitly marked result
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, `"cards":[]`)
	assert.Contains(t, body, `"cards_unavailable":true`)
}

func TestCustomerCardsSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/cards", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "C1", r.URL.Query().Get("customer_id"))
		_, _ = w.Write([]byte(`{"cards":[{"id":"CARD1","exp_month":12}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	app, store := setupTestApp(t, srv.URL)
	connectSeller(t, store, "M_1")

	req := httptest.NewRequest(http.MethodGet, "/api/customers/C1/cards", nil)
	req.Header.Set("x-merchant-id", "M_1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, `"id":"CARD1"`)
	assert.NotContains(t, body, "cards_unavailable")
}

func TestCardCreateValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("no provider call expected")
	}))
	defer srv.Close()

	app, store := setupTestApp(t, srv.URL)
	connectSeller(t, store, "M_1")

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/cards", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-merchant-id", "M_1")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"customerId":"C1","cardholderName":"Jane Doe"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "sourceId and customerId are required")

	resp = post(`{"sourceId":"cnon:1","customerId":"C1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "cardholderName is required")

	resp = post(`{"sourceId":"cnon:1","customerId":"C1","cardholderName":"John123"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Invalid cardholder name format")
}

func TestCardCreateGeneratesIdempotencyKey(t *testing.T) {
	seenKeys := make(map[string]bool)
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/cards", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			IdempotencyKey string `json:"idempotency_key"`
			Card           struct {
				CardholderName string `json:"cardholder_name"`
			} `json:"card"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.NotEmpty(t, payload.IdempotencyKey)
		assert.False(t, seenKeys[payload.IdempotencyKey], "idempotency key must be fresh per call")
		seenKeys[payload.IdempotencyKey] = true
		assert.Equal(t, "Jane Doe", payload.Card.CardholderName)

		_, _ = w.Write([]byte(`{"card":{"id":"CARD_NEW"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	app, store := setupTestApp(t, srv.URL)
	connectSeller(t, store, "M_1")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/cards",
			strings.NewReader(`{"sourceId":"cnon:1","customerId":"C1","cardholderName":" Jane Doe "}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-merchant-id", "M_1")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Len(t, seenKeys, 2)
}

func TestCardCreateHidesProviderDetail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/cards", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"category":"INVALID_REQUEST_ERROR","code":"VERIFY_CVV_FAILURE","detail":"CVV check failed"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	app, store := setupTestApp(t, srv.URL)
	connectSeller(t, store, "M_1")

	req := httptest.NewRequest(http.MethodPost, "/api/cards",
		strings.NewReader(`{"sourceId":"cnon:1","customerId":"C1","cardholderName":"Jane Doe"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-merchant-id", "M_1")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "CARD_CREATION_FAILED")
	assert.NotContains(t, body, "CVV", "provider detail must stay server-side")
}

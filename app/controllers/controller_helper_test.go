package controllers

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zorinapay/paybridge/app/models"
	"github.com/zorinapay/paybridge/internal/pkg/env"
	"github.com/zorinapay/paybridge/internal/pkg/sellerstore"
	"github.com/zorinapay/paybridge/internal/pkg/square"
)

const testWebhookKey = "test-signing-key"

// setupTestApp wires the controllers against an in-memory store and a
// Square client pointed at the given fake base URL, and registers the
// routes without the rate limiters.
func setupTestApp(t *testing.T, squareBaseURL string) (*fiber.App, *sellerstore.MemoryStore) {
	t.Helper()

	env.Env = map[string]string{
		"SQUARE_WEBHOOK_SIGNATURE_KEY": testWebhookKey,
		"DEFAULT_MERCHANT_ID":          "M_DEFAULT",
		"FRONTEND_URL":                 "https://pay.example.com",
	}

	store := sellerstore.NewMemoryStore()
	client := &square.Client{
		AppID:       "app-id",
		AppSecret:   "app-secret",
		RedirectURL: "https://relay.example.com/oauth/callback",
		BaseURL:     squareBaseURL,
		HTTPClient:  http.DefaultClient,
	}
	InitializeSellerControllers(store, client)

	app := fiber.New()
	app.Get("/health", HandleHealth)
	app.Get("/oauth/authorize", HandleOAuthAuthorize)
	app.Get("/oauth/callback", HandleOAuthCallback)
	app.Post("/webhooks/square", HandleSquareWebhook)
	app.Get("/api/config", HandleConfig)
	app.Get("/api/init", HandleInit)
	app.Post("/api/update-token", HandleUpdateToken)
	app.Post("/api/update-env", HandleUpdateEnv)
	app.Get("/api/token-status", HandleTokenStatus)
	app.Get("/api/locations", HandleLocations)
	app.Get("/api/customers/search", HandleCustomerSearch)
	app.Post("/api/customers/search", HandleCustomerSearchByPhone)
	app.Post("/api/customers", HandleCustomerCreate)
	app.Delete("/api/customers/delete", HandleCustomerDelete)
	app.Get("/api/customers/:customerId/cards", HandleCustomerCards)
	app.Post("/api/cards", HandleCardCreate)
	app.Post("/api/payments/create", HandlePaymentCreate)

	return app, store
}

// readBody drains a test response body into a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// connectSeller stores a valid credential for a merchant.
func connectSeller(t *testing.T, store sellerstore.Store, merchantID string, locations ...models.Location) {
	t.Helper()

	expires := time.Now().Add(time.Hour)
	if err := store.Put(context.Background(), &models.Seller{
		MerchantID:  merchantID,
		AccessToken: "test-token",
		ExpiresAt:   &expires,
		Locations:   locations,
	}); err != nil {
		t.Fatal(err)
	}
}

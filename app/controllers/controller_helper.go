package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zorinapay/paybridge/app/models"
	"github.com/zorinapay/paybridge/internal/pkg/env"
	"github.com/zorinapay/paybridge/internal/pkg/seller"
	"github.com/zorinapay/paybridge/internal/pkg/sellerstore"
	"github.com/zorinapay/paybridge/internal/pkg/square"
)

// providerCallTimeout bounds outbound Square calls issued from handlers.
const providerCallTimeout = 20 * time.Second

var (
	sellerStore   sellerstore.Store
	squareAPI     *square.Client
	sellerManager *seller.Manager
)

// InitializeSellerControllers wires the controllers to their store and
// Square client. Called once from the router during startup.
func InitializeSellerControllers(store sellerstore.Store, client *square.Client) {
	sellerStore = store
	squareAPI = client
	sellerManager = seller.NewManager(store, client)
}

func defaultMerchantID() string {
	return env.GetEnv("DEFAULT_MERCHANT_ID", "")
}

// merchantIDFromRequest selects the tenant: x-merchant-id header first,
// then the merchant_id query parameter, then the configured default.
func merchantIDFromRequest(c *fiber.Ctx) string {
	if id := strings.TrimSpace(c.Get("x-merchant-id")); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.Query("merchant_id")); id != "" {
		return id
	}
	return defaultMerchantID()
}

// resolveSeller runs the request's merchant through the lifecycle manager.
func resolveSeller(c *fiber.Ctx) (*models.Seller, error) {
	return sellerManager.Resolve(c.UserContext(), merchantIDFromRequest(c))
}

func unauthorizedSeller(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Seller not connected or token expired. Please reconnect.",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func providerCallContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), providerCallTimeout)
}

// stripBearerPrefix removes a "Bearer " prefix that some automation
// webhooks include in pushed tokens.
func stripBearerPrefix(token string) string {
	trimmed := strings.TrimSpace(token)
	if len(trimmed) >= 7 && strings.EqualFold(trimmed[:7], "bearer ") {
		return strings.TrimSpace(trimmed[7:])
	}
	return trimmed
}

// abbrevID shortens opaque identifiers for logs.
func abbrevID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

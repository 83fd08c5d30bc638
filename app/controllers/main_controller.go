package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zorinapay/paybridge/internal/pkg/env"
	"github.com/zorinapay/paybridge/internal/pkg/sellerstore"
)

func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleConfig exposes the public application id and environment flags.
// Secrets never leave the process environment.
func HandleConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"appId":              env.GetEnv("SQUARE_APP_ID", ""),
		"environment":        env.GetEnv("SQUARE_ENV", "sandbox"),
		"isProduction":       env.IsProduction(),
		"isSquareProduction": env.IsSquareProduction(),
	})
}

// HandleInit reports whether the default merchant has a stored
// credential. Debug endpoint for deployment checks.
func HandleInit(c *fiber.Ctx) error {
	merchantID := defaultMerchantID()

	initialized := false
	locationsCount := 0
	if merchantID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s, err := sellerStore.Get(ctx, merchantID); err == nil {
			initialized = true
			locationsCount = len(s.Locations)
		} else if !errors.Is(err, sellerstore.ErrNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "store lookup failed"})
		}
	}

	return c.JSON(fiber.Map{
		"initialized":     initialized,
		"merchantId":      merchantID,
		"locations_count": locationsCount,
	})
}

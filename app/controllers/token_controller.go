package controllers

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zorinapay/paybridge/app/models"
	"github.com/zorinapay/paybridge/internal/pkg/env"
	"github.com/zorinapay/paybridge/internal/pkg/validate"
)

type updateTokenRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	MerchantID   string `json:"merchant_id" validate:"required"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds, optional
	LocationID   string `json:"location_id"`
}

// HandleUpdateToken accepts a token pushed from an automation webhook,
// verifies it by fetching locations, and stores the credential. The
// automation is notified of the outcome when a callback URL is set.
func HandleUpdateToken(c *fiber.Ctx) error {
	var req updateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.AccessToken = stripBearerPrefix(req.AccessToken)
	if err := validate.Struct(req); err != nil {
		return badRequest(c, "access_token and merchant_id are required")
	}

	ctx, cancel := providerCallContext()
	defer cancel()

	locations, err := squareAPI.ListLocations(ctx, req.AccessToken)
	if err != nil {
		log.Printf("token update for %s: location fetch failed: %v", abbrevID(req.MerchantID), err)
		notifyAutomation(fiber.Map{
			"status":    "error",
			"error":     "location fetch with pushed token failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not verify pushed token"})
	}

	expiresAt := time.Now().Add(time.Hour)
	if req.ExpiresAt > 0 {
		expiresAt = time.Unix(req.ExpiresAt, 0)
	}
	pushed := &models.Seller{
		MerchantID:   req.MerchantID,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresAt:    &expiresAt,
		Locations:    locations,
	}
	if err := sellerStore.Put(c.UserContext(), pushed); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not store credential"})
	}

	log.Printf("token updated for merchant %s", abbrevID(req.MerchantID))
	notifyAutomation(fiber.Map{
		"status":          "success",
		"merchant_id":     req.MerchantID,
		"message":         "Access token updated successfully",
		"locations_count": len(locations),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(fiber.Map{
		"status":          "success",
		"merchant_id":     req.MerchantID,
		"locations_count": len(locations),
		"message":         "Access token updated successfully",
	})
}

// HandleUpdateEnv is the variant of the token push used behind deployment
// protection: an optional bypass token gates it, and no provider call is
// made — the location, when given, is stored as-is.
func HandleUpdateEnv(c *fiber.Ctx) error {
	expected := env.GetEnv("VERCEL_PROTECTION_BYPASS", "")
	if expected != "" {
		got := c.Get("x-vercel-protection-bypass")
		if got == "" {
			got = c.Query("x-vercel-protection-bypass")
		}
		if got != expected {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid bypass token"})
		}
	}

	var req updateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.AccessToken = stripBearerPrefix(req.AccessToken)
	if err := validate.Struct(req); err != nil {
		return badRequest(c, "access_token and merchant_id are required")
	}

	var locations []models.Location
	if req.LocationID != "" {
		locations = []models.Location{{
			ID:     req.LocationID,
			Name:   env.GetEnv("DEFAULT_LOCATION_NAME", "Default Location"),
			Status: models.LocationStatusActive,
		}}
	}

	pushed := &models.Seller{
		MerchantID:  req.MerchantID,
		AccessToken: req.AccessToken,
		Locations:   locations,
	}
	if err := sellerStore.Put(c.UserContext(), pushed); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not store credential"})
	}

	log.Printf("environment token updated for merchant %s", abbrevID(req.MerchantID))
	return c.JSON(fiber.Map{
		"status":      "success",
		"merchant_id": req.MerchantID,
		"message":     "Environment credential updated successfully",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleTokenStatus reports not_connected / expired / active for a
// merchant without touching the provider.
func HandleTokenStatus(c *fiber.Ctx) error {
	merchantID := c.Query("merchant_id")
	if merchantID == "" {
		return badRequest(c, "merchant_id query parameter is required")
	}

	s, err := sellerStore.Get(c.UserContext(), merchantID)
	if err != nil {
		return c.JSON(fiber.Map{
			"status":      "not_connected",
			"merchant_id": merchantID,
			"message":     "No access token found for this merchant",
		})
	}

	if s.Expired(time.Now()) {
		return c.JSON(fiber.Map{
			"status":      "expired",
			"merchant_id": merchantID,
			"expires_at":  s.ExpiresAt.UTC().Format(time.RFC3339),
			"message":     "Access token has expired",
		})
	}

	resp := fiber.Map{
		"status":          "active",
		"merchant_id":     merchantID,
		"locations_count": len(s.Locations),
		"message":         "Access token is active",
	}
	if s.ExpiresAt != nil {
		resp["expires_at"] = s.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(resp)
}

// notifyAutomation posts the token-push outcome to the configured
// automation webhook. Best-effort: failures are only logged.
func notifyAutomation(payload fiber.Map) {
	webhookURL := env.GetEnv("N8N_WEBHOOK_URL", "")
	if webhookURL == "" {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("automation webhook notification failed: %v", err)
		return
	}
	_ = resp.Body.Close()
}

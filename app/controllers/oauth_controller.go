package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zorinapay/paybridge/app/models"
	"github.com/zorinapay/paybridge/internal/pkg/env"
	"github.com/zorinapay/paybridge/internal/pkg/square"
)

const oauthStateCookie = "oauth_state"

// oauthStateMaxAge keeps the anti-forgery cookie short-lived; the seller
// has ten minutes to complete the Square consent screen.
const oauthStateMaxAge = 10 * time.Minute

// HandleOAuthAuthorize starts seller onboarding: a random state value is
// set in a scoped cookie and echoed through Square's authorize redirect.
func HandleOAuthAuthorize(c *fiber.Ctx) error {
	state, err := generateOAuthState()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not generate oauth state"})
	}

	authorizeURL, err := squareAPI.AuthorizeURL(state)
	if err != nil {
		log.Printf("oauth authorize misconfigured: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "oauth is not configured"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		HTTPOnly: true,
		Secure:   env.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   int(oauthStateMaxAge.Seconds()),
	})

	return c.Redirect(authorizeURL, fiber.StatusFound)
}

// HandleOAuthCallback completes onboarding: state check, code exchange,
// location fetch, credential store write, redirect to the frontend.
func HandleOAuthCallback(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing authorization code")
	}

	state := c.Query("state")
	storedState := c.Cookies(oauthStateCookie)
	if state == "" || storedState == "" || state != storedState {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid state parameter")
	}

	ctx, cancel := providerCallContext()
	defer cancel()

	token, err := squareAPI.ExchangeCode(ctx, code)
	if err != nil {
		var apiErr *square.APIError
		if errors.As(err, &apiErr) {
			// Relay Square's own error body so onboarding failures are
			// debuggable from the browser.
			return c.Status(fiber.StatusBadRequest).Type("json").SendString(apiErr.Body)
		}
		log.Printf("oauth code exchange failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("OAuth error")
	}

	locations, err := squareAPI.ListLocations(ctx, token.AccessToken)
	if err != nil {
		log.Printf("location fetch after oauth failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("OAuth error")
	}

	newSeller := &models.Seller{
		MerchantID:   token.MerchantID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiryTime(),
		Locations:    locations,
	}
	if err := sellerStore.Put(c.UserContext(), newSeller); err != nil {
		log.Printf("storing onboarded seller failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("OAuth error")
	}

	clearOAuthStateCookie(c)
	log.Printf("seller %s onboarded via oauth", abbrevID(token.MerchantID))

	frontend := env.GetEnv("FRONTEND_URL", "http://localhost:3000")
	return c.Redirect(frontend+"?merchant_id="+token.MerchantID, fiber.StatusFound)
}

func clearOAuthStateCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		HTTPOnly: true,
		Secure:   env.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-time.Hour),
	})
}

func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

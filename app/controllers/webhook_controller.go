package controllers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/zorinapay/paybridge/internal/pkg/env"
	"github.com/zorinapay/paybridge/internal/pkg/square"
)

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			Payment struct {
				ID string `json:"id"`
			} `json:"payment"`
			Refund struct {
				ID string `json:"id"`
			} `json:"refund"`
		} `json:"object"`
	} `json:"data"`
}

// HandleSquareWebhook verifies the HMAC signature over the exact raw body
// before any event handling. Unrecognized event types are accepted and
// ignored so new Square features cannot break the receiver.
func HandleSquareWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("x-square-hmacsha256-signature")
	signingKey := env.GetEnv("SQUARE_WEBHOOK_SIGNATURE_KEY", "")

	if signature == "" || signingKey == "" {
		return c.Status(fiber.StatusUnauthorized).SendString("Missing signature or key")
	}
	if !square.VerifyWebhookSignature(rawBody, signature, signingKey) {
		return c.Status(fiber.StatusUnauthorized).SendString("Invalid signature")
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid payload")
	}

	switch event.Type {
	case "payment.updated":
		log.Printf("webhook: payment updated: %s", abbrevID(event.Data.Object.Payment.ID))
	case "refund.updated":
		log.Printf("webhook: refund updated: %s", abbrevID(event.Data.Object.Refund.ID))
	default:
		log.Printf("webhook: unhandled event type: %s", event.Type)
	}

	return c.SendStatus(fiber.StatusOK)
}

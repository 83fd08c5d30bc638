package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zorinapay/paybridge/internal/pkg/square"
)

// maxPaymentAmountCents caps a single payment at 1,000,000 minor units.
const maxPaymentAmountCents = 1_000_000

var validCurrencies = map[string]bool{
	"USD": true,
	"CAD": true,
	"GBP": true,
	"EUR": true,
	"AUD": true,
	"JPY": true,
}

type createPaymentRequest struct {
	AmountCents    int64  `json:"amountCents"`
	Currency       string `json:"currency"`
	PaymentToken   string `json:"paymentToken"`
	CustomerID     string `json:"customerId"`
	IdempotencyKey string `json:"idempotencyKey"`
	LocationID     string `json:"locationId"`
}

// HandlePaymentCreate charges a tokenized payment source. Amount ceiling,
// currency allow-list, and location ownership are all checked before any
// provider call.
func HandlePaymentCreate(c *fiber.Ctx) error {
	current, err := resolveSeller(c)
	if err != nil {
		return unauthorizedSeller(c)
	}

	var req createPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Currency == "" {
		req.Currency = "CAD"
	}

	if req.AmountCents == 0 || req.PaymentToken == "" || req.IdempotencyKey == "" || req.LocationID == "" {
		return badRequest(c, "amountCents, paymentToken, idempotencyKey, and locationId are required")
	}
	if req.AmountCents <= 0 {
		return badRequest(c, "amountCents must be a positive number")
	}
	if req.AmountCents > maxPaymentAmountCents {
		return badRequest(c, "Payment amount exceeds maximum limit")
	}
	if !validCurrencies[req.Currency] {
		return badRequest(c, "Invalid currency")
	}
	if !current.HasLocation(req.LocationID) {
		return badRequest(c, "Invalid location ID")
	}

	ctx, cancel := providerCallContext()
	defer cancel()

	payment, err := squareAPI.CreatePayment(ctx, current.AccessToken, square.PaymentInput{
		IdempotencyKey: req.IdempotencyKey,
		SourceID:       req.PaymentToken,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		CustomerID:     req.CustomerID,
		LocationID:     req.LocationID,
	})
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(fiber.Map{"payment": square.NormalizeNumbers(payment)})
}

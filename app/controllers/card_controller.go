package controllers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/zorinapay/paybridge/internal/pkg/square"
	"github.com/zorinapay/paybridge/internal/pkg/validate"
)

// HandleCustomerCards lists a customer's cards on file. A provider
// failure degrades to an empty list with an explicit marker so the
// card-add flow is never blocked by a transient lookup error.
func HandleCustomerCards(c *fiber.Ctx) error {
	current, err := resolveSeller(c)
	if err != nil {
		return unauthorizedSeller(c)
	}

	customerID := c.Params("customerId")
	log.Printf("fetching cards for customer %s", abbrevID(customerID))

	ctx, cancel := providerCallContext()
	defer cancel()

	cards, err := squareAPI.ListCards(ctx, current.AccessToken, customerID)
	if err != nil {
		log.Printf("card lookup failed, returning empty list: %v", err)
		return c.JSON(fiber.Map{"cards": []json.RawMessage{}, "cards_unavailable": true})
	}

	return c.JSON(fiber.Map{"cards": square.NormalizeEach(cards)})
}

type createCardRequest struct {
	SourceID       string `json:"sourceId"`
	CustomerID     string `json:"customerId"`
	CardholderName string `json:"cardholderName"`
	BillingAddress *struct {
		PostalCode string `json:"postal_code"`
		Locality   string `json:"locality"`
	} `json:"billingAddress"`
}

// HandleCardCreate stores a card on file. The idempotency key is
// generated fresh per call, and provider error detail stays server-side:
// only a generic failure code is surfaced to the caller.
func HandleCardCreate(c *fiber.Ctx) error {
	current, err := resolveSeller(c)
	if err != nil {
		return unauthorizedSeller(c)
	}

	var req createCardRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.SourceID == "" || req.CustomerID == "" {
		return badRequest(c, "sourceId and customerId are required")
	}

	cardholderName := validate.Sanitize(req.CardholderName)
	if cardholderName == "" {
		return badRequest(c, "cardholderName is required and cannot be empty")
	}
	if !validate.CardholderName(cardholderName) {
		return badRequest(c, "Invalid cardholder name format. Only letters, spaces, hyphens, apostrophes, and periods are allowed")
	}

	input := square.CardInput{
		IdempotencyKey: uuid.NewString(),
		SourceID:       req.SourceID,
		CustomerID:     req.CustomerID,
		CardholderName: cardholderName,
	}
	if req.BillingAddress != nil {
		input.BillingAddress = &square.BillingAddress{
			PostalCode: req.BillingAddress.PostalCode,
			Locality:   req.BillingAddress.Locality,
		}
	}

	ctx, cancel := providerCallContext()
	defer cancel()

	card, err := squareAPI.CreateCard(ctx, current.AccessToken, input)
	if err != nil {
		// Full detail stays in the server log only; exposing it here
		// would hand useful feedback to card-testing abuse.
		log.Printf("card creation failed for customer %s: %v", abbrevID(req.CustomerID), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create card. Please try again.",
			"code":  "CARD_CREATION_FAILED",
		})
	}

	return c.JSON(fiber.Map{"card": square.NormalizeNumbers(card)})
}

package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/zorinapay/paybridge/internal/pkg/square"
	"github.com/zorinapay/paybridge/internal/pkg/validate"
)

// HandleCustomerSearch searches by email and/or phone. When both filters
// are present the provider is queried once per filter and the results are
// unioned, deduplicated by customer id with first-seen order preserved.
func HandleCustomerSearch(c *fiber.Ctx) error {
	current, err := resolveSeller(c)
	if err != nil {
		return unauthorizedSeller(c)
	}

	email := c.Query("email")
	phone := c.Query("phone")

	ctx, cancel := providerCallContext()
	defer cancel()

	var results []json.RawMessage
	if email != "" {
		found, err := squareAPI.SearchCustomers(ctx, current.AccessToken, square.CustomerFilter{Email: email})
		if err != nil {
			log.Printf("customer search by email failed: %v", err)
		} else {
			results = append(results, found...)
		}
	}
	if phone != "" {
		found, err := squareAPI.SearchCustomers(ctx, current.AccessToken, square.CustomerFilter{Phone: phone})
		if err != nil {
			log.Printf("customer search by phone failed: %v", err)
		} else {
			results = append(results, found...)
		}
	}

	unique := dedupCustomersByID(results)

	// Attach each customer's cards on file. A failed card lookup must not
	// sink the whole search; it degrades to an empty list with an
	// explicit marker so callers can tell the two states apart.
	customers := make([]fiber.Map, 0, len(unique))
	for _, raw := range unique {
		entry := decodeCustomer(raw)
		cards, cardsErr := squareAPI.ListCards(ctx, current.AccessToken, customerIDOf(raw))
		if cardsErr != nil {
			log.Printf("card lookup for customer %s failed: %v", abbrevID(customerIDOf(raw)), cardsErr)
			entry["cards"] = []json.RawMessage{}
			entry["cards_unavailable"] = true
		} else {
			entry["cards"] = square.NormalizeEach(cards)
		}
		customers = append(customers, entry)
	}

	return c.JSON(fiber.Map{"customers": customers})
}

type phoneSearchRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// HandleCustomerSearchByPhone is the single-filter search used by the
// booking flow; the phone must be E.164 before any provider call.
func HandleCustomerSearchByPhone(c *fiber.Ctx) error {
	current, err := resolveSeller(c)
	if err != nil {
		return unauthorizedSeller(c)
	}

	var req phoneSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Phone number is required")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, "Phone number is required")
	}
	if !validate.E164Phone(req.Phone) {
		return badRequest(c, "Phone number must be in E164 format (e.g., +15551234567)")
	}

	ctx, cancel := providerCallContext()
	defer cancel()

	found, err := squareAPI.SearchCustomers(ctx, current.AccessToken, square.CustomerFilter{Phone: req.Phone})
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(fiber.Map{"customers": square.NormalizeEach(found)})
}

type createCustomerRequest struct {
	GivenName    string `json:"givenName"`
	FamilyName   string `json:"familyName"`
	EmailAddress string `json:"emailAddress"`
	PhoneNumber  string `json:"phoneNumber"`
}

func HandleCustomerCreate(c *fiber.Ctx) error {
	current, err := resolveSeller(c)
	if err != nil {
		return unauthorizedSeller(c)
	}

	var req createCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	givenName := validate.Sanitize(req.GivenName)
	familyName := validate.Sanitize(req.FamilyName)
	email := validate.Sanitize(req.EmailAddress)
	phone := validate.Sanitize(req.PhoneNumber)

	if givenName == "" || familyName == "" {
		return badRequest(c, "givenName and familyName are required")
	}
	if !validate.CardholderName(givenName) {
		return badRequest(c, "Invalid givenName format")
	}
	if !validate.CardholderName(familyName) {
		return badRequest(c, "Invalid familyName format")
	}
	if email != "" && !validate.Email(email) {
		return badRequest(c, "Invalid email format")
	}
	if phone != "" && !validate.PhoneNumber(phone) {
		return badRequest(c, "Invalid phone number format. Please use +1XXXXXXXXXX format")
	}

	ctx, cancel := providerCallContext()
	defer cancel()

	created, err := squareAPI.CreateCustomer(ctx, current.AccessToken, square.CustomerInput{
		GivenName:    givenName,
		FamilyName:   familyName,
		EmailAddress: email,
		PhoneNumber:  phone,
	})
	if err != nil {
		return upstreamError(c, err)
	}

	return c.JSON(fiber.Map{"customer": square.NormalizeNumbers(created)})
}

type deleteCustomerRequest struct {
	CustomerID string `json:"customerId" validate:"required"`
}

func HandleCustomerDelete(c *fiber.Ctx) error {
	// Deletion goes through the lifecycle manager like every other proxy
	// operation; it must never use a token from anywhere else.
	current, err := resolveSeller(c)
	if err != nil {
		return unauthorizedSeller(c)
	}

	var req deleteCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Customer ID is required"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Customer ID is required"})
	}

	log.Printf("deleting customer %s", abbrevID(req.CustomerID))

	ctx, cancel := providerCallContext()
	defer cancel()

	if _, err := squareAPI.DeleteCustomer(ctx, current.AccessToken, req.CustomerID); err != nil {
		var apiErr *square.APIError
		if errors.As(err, &apiErr) && len(apiErr.Errors) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": apiErr.JoinedDetails()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Failed to delete customer"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Customer deleted successfully"})
}

// upstreamError relays provider failures: caller-input problems as 400
// with Square's detail, everything else as 500.
func upstreamError(c *fiber.Ctx, err error) error {
	var apiErr *square.APIError
	if errors.As(err, &apiErr) {
		status := fiber.StatusInternalServerError
		if apiErr.IsCallerError() {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{"error": apiErr.Error(), "details": apiErr.Errors})
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "provider call timed out"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// dedupCustomersByID drops duplicate customers, keeping first-seen order.
func dedupCustomersByID(customers []json.RawMessage) []json.RawMessage {
	seen := make(map[string]bool, len(customers))
	unique := make([]json.RawMessage, 0, len(customers))
	for _, raw := range customers {
		id := customerIDOf(raw)
		if id != "" && seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, raw)
	}
	return unique
}

func customerIDOf(raw json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &probe)
	return probe.ID
}

// decodeCustomer expands a raw customer object into a mutable map with
// its 64-bit fields already normalized.
func decodeCustomer(raw json.RawMessage) fiber.Map {
	normalized := square.NormalizeNumbers(raw)
	entry := fiber.Map{}
	if err := json.Unmarshal(normalized, &entry); err != nil {
		return fiber.Map{}
	}
	return entry
}

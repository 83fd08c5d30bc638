package square

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/zorinapay/paybridge/app/models"
)

// ListLocations fetches the seller's locations and filters them down to
// the ACTIVE ones; that subset is all this service ever caches.
func (c *Client) ListLocations(ctx context.Context, accessToken string) ([]models.Location, error) {
	body, err := c.doJSON(ctx, http.MethodGet, c.BaseURL+"/v2/locations", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Locations []models.Location `json:"locations"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return models.ActiveLocations(out.Locations), nil
}

// CustomerFilter is an exact-match search filter; exactly one field
// should be set per call.
type CustomerFilter struct {
	Email string
	Phone string
}

type exactFilter struct {
	Exact string `json:"exact"`
}

// SearchCustomers runs one exact-match query and returns the raw customer
// objects so money/timestamp fields can be normalized at the edge.
func (c *Client) SearchCustomers(ctx context.Context, accessToken string, filter CustomerFilter) ([]json.RawMessage, error) {
	inner := map[string]interface{}{}
	switch {
	case filter.Email != "":
		inner["email_address"] = exactFilter{Exact: filter.Email}
	case filter.Phone != "":
		inner["phone_number"] = exactFilter{Exact: filter.Phone}
	default:
		return nil, errors.New("square: customer search filter is empty")
	}

	payload := map[string]interface{}{
		"query": map[string]interface{}{"filter": inner},
	}
	body, err := c.doJSON(ctx, http.MethodPost, c.BaseURL+"/v2/customers/search", accessToken, payload)
	if err != nil {
		return nil, err
	}

	var out struct {
		Customers []json.RawMessage `json:"customers"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out.Customers, nil
}

type CustomerInput struct {
	GivenName    string `json:"given_name"`
	FamilyName   string `json:"family_name"`
	EmailAddress string `json:"email_address,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
}

func (c *Client) CreateCustomer(ctx context.Context, accessToken string, input CustomerInput) (json.RawMessage, error) {
	body, err := c.doJSON(ctx, http.MethodPost, c.BaseURL+"/v2/customers", accessToken, input)
	if err != nil {
		return nil, err
	}

	var out struct {
		Customer json.RawMessage `json:"customer"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out.Customer, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, accessToken, customerID string) (json.RawMessage, error) {
	return c.doJSON(ctx, http.MethodDelete, c.BaseURL+"/v2/customers/"+url.PathEscape(customerID), accessToken, nil)
}

// ListCards returns the raw card objects on file for a customer.
func (c *Client) ListCards(ctx context.Context, accessToken, customerID string) ([]json.RawMessage, error) {
	u := c.BaseURL + "/v2/cards?customer_id=" + url.QueryEscape(customerID)
	body, err := c.doJSON(ctx, http.MethodGet, u, accessToken, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Cards []json.RawMessage `json:"cards"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out.Cards, nil
}

type BillingAddress struct {
	PostalCode string `json:"postal_code,omitempty"`
	Locality   string `json:"locality,omitempty"`
}

type CardInput struct {
	IdempotencyKey string
	SourceID       string
	CustomerID     string
	CardholderName string
	BillingAddress *BillingAddress
}

func (c *Client) CreateCard(ctx context.Context, accessToken string, input CardInput) (json.RawMessage, error) {
	card := map[string]interface{}{
		"customer_id":     input.CustomerID,
		"cardholder_name": input.CardholderName,
	}
	if input.BillingAddress != nil {
		card["billing_address"] = input.BillingAddress
	}
	payload := map[string]interface{}{
		"idempotency_key": input.IdempotencyKey,
		"source_id":       input.SourceID,
		"card":            card,
	}

	body, err := c.doJSON(ctx, http.MethodPost, c.BaseURL+"/v2/cards", accessToken, payload)
	if err != nil {
		return nil, err
	}

	var out struct {
		Card json.RawMessage `json:"card"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out.Card, nil
}

type PaymentInput struct {
	IdempotencyKey string
	SourceID       string
	AmountCents    int64
	Currency       string
	CustomerID     string
	LocationID     string
}

func (c *Client) CreatePayment(ctx context.Context, accessToken string, input PaymentInput) (json.RawMessage, error) {
	payload := map[string]interface{}{
		"idempotency_key": input.IdempotencyKey,
		"source_id":       input.SourceID,
		"amount_money": map[string]interface{}{
			"amount":   input.AmountCents,
			"currency": input.Currency,
		},
		"location_id": input.LocationID,
	}
	if input.CustomerID != "" {
		payload["customer_id"] = input.CustomerID
	}

	body, err := c.doJSON(ctx, http.MethodPost, c.BaseURL+"/v2/payments", accessToken, payload)
	if err != nil {
		return nil, err
	}

	var out struct {
		Payment json.RawMessage `json:"payment"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out.Payment, nil
}

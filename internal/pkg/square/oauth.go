package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Scopes requested during seller onboarding. The set is fixed; Square
// grants are all-or-nothing per authorization.
var oauthScopes = []string{
	"CUSTOMERS_READ",
	"CUSTOMERS_WRITE",
	"PAYMENTS_READ",
	"PAYMENTS_WRITE",
	"PAYMENTS_WRITE_ADDITIONAL_RECIPIENTS",
	"CARDS_READ",
	"CARDS_WRITE",
	"MERCHANT_PROFILE_READ",
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
	MerchantID   string `json:"merchant_id"`
	TokenType    string `json:"token_type"`
}

// ExpiryTime parses the RFC3339 expires_at value. A missing or malformed
// value yields nil, which downstream treats as "never expires".
func (t *TokenResponse) ExpiryTime() *time.Time {
	if strings.TrimSpace(t.ExpiresAt) == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, t.ExpiresAt)
	if err != nil {
		return nil
	}
	return &parsed
}

// AuthorizeURL builds the seller-facing authorization redirect.
// session=false forces Square to show the login form instead of reusing
// an existing dashboard session.
func (c *Client) AuthorizeURL(state string) (string, error) {
	if c.AppID == "" {
		return "", errors.New("SQUARE_APP_ID is not configured")
	}
	if c.RedirectURL == "" {
		return "", errors.New("SQUARE_REDIRECT_URL is not configured")
	}

	u, err := url.Parse(c.BaseURL + "/oauth2/authorize")
	if err != nil {
		return "", fmt.Errorf("invalid SQUARE_BASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("client_id", c.AppID)
	q.Set("scope", strings.Join(oauthScopes, " "))
	q.Set("session", "false")
	q.Set("state", state)
	q.Set("redirect_uri", c.RedirectURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExchangeCode trades an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("oauth code is required")
	}
	return c.requestToken(ctx, map[string]string{
		"client_id":     c.AppID,
		"client_secret": c.AppSecret,
		"code":          strings.TrimSpace(code),
		"grant_type":    "authorization_code",
	})
}

// RefreshToken renews an access token using the seller's refresh token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, errors.New("refresh token is required")
	}
	return c.requestToken(ctx, map[string]string{
		"client_id":     c.AppID,
		"client_secret": c.AppSecret,
		"refresh_token": strings.TrimSpace(refreshToken),
		"grant_type":    "refresh_token",
	})
}

func (c *Client) requestToken(ctx context.Context, payload map[string]string) (*TokenResponse, error) {
	if c.AppID == "" || c.AppSecret == "" {
		return nil, errors.New("SQUARE_APP_ID/SQUARE_APP_SECRET are not configured")
	}

	body, err := c.doJSON(ctx, http.MethodPost, c.BaseURL+"/oauth2/token", "", payload)
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		// Square sometimes reports errors with a 200; surface the raw
		// body so the caller can relay it.
		return nil, &APIError{StatusCode: http.StatusOK, Body: string(body)}
	}
	return &out, nil
}

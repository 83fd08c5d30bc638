package square

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zorinapay/paybridge/internal/pkg/env"
)

const (
	productionBaseURL = "https://connect.squareup.com"
	sandboxBaseURL    = "https://connect.squareupsandbox.com"

	apiVersion = "2024-06-04"
)

// Client is a thin hand-rolled client for the parts of the Square Connect
// API this service proxies. Access tokens are passed per call because each
// request acts on behalf of a different seller.
type Client struct {
	AppID       string
	AppSecret   string
	RedirectURL string
	BaseURL     string

	HTTPClient *http.Client
}

func NewClientFromEnv() *Client {
	baseURL := sandboxBaseURL
	if env.IsSquareProduction() {
		baseURL = productionBaseURL
	}

	return &Client{
		AppID:       strings.TrimSpace(env.GetEnv("SQUARE_APP_ID", "")),
		AppSecret:   strings.TrimSpace(env.GetEnv("SQUARE_APP_SECRET", "")),
		RedirectURL: strings.TrimSpace(env.GetEnv("SQUARE_REDIRECT_URL", "")),
		BaseURL:     strings.TrimSpace(env.GetEnv("SQUARE_BASE_URL", baseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ErrorDetail is one entry of Square's structured error list.
type ErrorDetail struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	Field    string `json:"field,omitempty"`
}

// APIError carries a failed Square response. Body keeps the raw payload
// for the debugging paths that surface provider detail.
type APIError struct {
	StatusCode int
	Errors     []ErrorDetail
	Body       string
}

func (e *APIError) Error() string {
	if msg := e.JoinedDetails(); msg != "" {
		return msg
	}
	return fmt.Sprintf("square: request failed with status %d: %s", e.StatusCode, e.Body)
}

// JoinedDetails flattens the structured sub-errors into one
// human-readable message.
func (e *APIError) JoinedDetails() string {
	details := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		if se.Detail != "" {
			details = append(details, se.Detail)
		} else if se.Code != "" {
			details = append(details, se.Code)
		}
	}
	return strings.Join(details, ", ")
}

// IsCallerError reports whether the failure is a problem with the caller's
// input (4xx) rather than with Square or this service.
func (e *APIError) IsCallerError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

func (c *Client) do(req *http.Request, accessToken string) (json.RawMessage, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Square-Version", apiVersion)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		var envelope struct {
			Errors []ErrorDetail `json:"errors"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil {
			apiErr.Errors = envelope.Errors
		}
		return nil, apiErr
	}
	return json.RawMessage(body), nil
}

func (c *Client) doJSON(ctx context.Context, method, url, accessToken string, payload interface{}) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, accessToken)
}

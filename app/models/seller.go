package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const LocationStatusActive = "ACTIVE"

// Location is a seller's place of business at Square, cached on the
// Seller after onboarding so payment requests can be scoped to it.
type Location struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Seller is the per-merchant credential record. A Seller only exists in
// the store while it holds a usable access token; "not connected" is the
// absence of an entry, never an entry with an empty token.
type Seller struct {
	MerchantID   string     `json:"merchant_id" validate:"required"`
	AccessToken  string     `json:"access_token" validate:"required"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Locations    []Location `json:"locations"`
}

func (s *Seller) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// Expired reports whether the access token is past its expiry. A nil
// ExpiresAt means the token never expires.
func (s *Seller) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// HasLocation reports whether id is one of the seller's cached active
// locations.
func (s *Seller) HasLocation(id string) bool {
	for _, l := range s.Locations {
		if l.ID == id {
			return true
		}
	}
	return false
}

// ActiveLocations filters a provider location list down to the ACTIVE
// entries, which is all the store ever keeps.
func ActiveLocations(locations []Location) []Location {
	active := make([]Location, 0, len(locations))
	for _, l := range locations {
		if l.Status == LocationStatusActive {
			active = append(active, l)
		}
	}
	return active
}

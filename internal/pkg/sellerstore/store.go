package sellerstore

import (
	"context"
	"errors"
	"sync"

	"github.com/zorinapay/paybridge/app/models"
)

var (
	// ErrNotFound means no credential exists for the merchant.
	ErrNotFound = errors.New("sellerstore: seller not found")
	// ErrEmptyAccessToken rejects writes that would violate the
	// "no entry without a token" invariant.
	ErrEmptyAccessToken = errors.New("sellerstore: seller has no access token")
)

// Store maps a merchant id to its credential record. Writes are whole-entry
// replacements; latest write wins.
type Store interface {
	Get(ctx context.Context, merchantID string) (*models.Seller, error)
	Put(ctx context.Context, seller *models.Seller) error
	Delete(ctx context.Context, merchantID string) error
}

// MemoryStore is the default process-local Store. Everything is lost on
// restart, which forces sellers to re-onboard.
type MemoryStore struct {
	mu      sync.RWMutex
	sellers map[string]models.Seller
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sellers: make(map[string]models.Seller)}
}

func (s *MemoryStore) Get(_ context.Context, merchantID string) (*models.Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seller, ok := s.sellers[merchantID]
	if !ok {
		return nil, ErrNotFound
	}
	// Copy out so callers never mutate the stored entry in place.
	out := seller
	out.Locations = append([]models.Location(nil), seller.Locations...)
	return &out, nil
}

func (s *MemoryStore) Put(_ context.Context, seller *models.Seller) error {
	if seller.AccessToken == "" {
		return ErrEmptyAccessToken
	}
	if seller.MerchantID == "" {
		return errors.New("sellerstore: seller has no merchant id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *seller
	stored.Locations = append([]models.Location(nil), seller.Locations...)
	s.sellers[seller.MerchantID] = stored
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, merchantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sellers, merchantID)
	return nil
}

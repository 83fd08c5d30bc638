package seller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zorinapay/paybridge/app/models"
	"github.com/zorinapay/paybridge/internal/pkg/sellerstore"
	"github.com/zorinapay/paybridge/internal/pkg/square"
)

// ErrNotConnected means the merchant has no usable credential: either it
// was never onboarded, or its token expired and could not be renewed.
var ErrNotConnected = errors.New("seller: not connected or token expired")

// refreshWindow is how close to expiry a token may get before Resolve
// renews it pre-emptively.
const refreshWindow = 5 * time.Minute

// providerTimeout bounds every outbound Square call made on the resolve
// path so a hung provider cannot hang request handling indefinitely.
const providerTimeout = 15 * time.Second

// Provider is the slice of the Square client the lifecycle manager needs.
type Provider interface {
	RefreshToken(ctx context.Context, refreshToken string) (*square.TokenResponse, error)
	ListLocations(ctx context.Context, accessToken string) ([]models.Location, error)
}

// Manager resolves merchant ids to currently-valid credentials,
// refreshing or evicting stale ones along the way.
type Manager struct {
	store    sellerstore.Store
	provider Provider
	now      func() time.Time

	mu         sync.Mutex
	refreshing map[string]*sync.Mutex
}

func NewManager(store sellerstore.Store, provider Provider) *Manager {
	return &Manager{
		store:      store,
		provider:   provider,
		now:        time.Now,
		refreshing: make(map[string]*sync.Mutex),
	}
}

// Resolve returns the merchant's credential, transparently renewing it
// when expiry is near. Any renewal failure evicts the credential: the
// merchant is then "not connected" until it re-onboards.
func (m *Manager) Resolve(ctx context.Context, merchantID string) (*models.Seller, error) {
	s, err := m.store.Get(ctx, merchantID)
	if err != nil {
		if errors.Is(err, sellerstore.ErrNotFound) {
			return nil, ErrNotConnected
		}
		return nil, fmt.Errorf("seller: store lookup: %w", err)
	}

	if !m.needsRefresh(s) {
		return s, nil
	}
	return m.refresh(ctx, merchantID)
}

func (m *Manager) needsRefresh(s *models.Seller) bool {
	return s.ExpiresAt != nil && !m.now().Add(refreshWindow).Before(*s.ExpiresAt)
}

// refresh renews the credential under a per-merchant lock so concurrent
// requests inside the expiry window collapse into a single provider call.
func (m *Manager) refresh(ctx context.Context, merchantID string) (*models.Seller, error) {
	lock := m.merchantLock(merchantID)
	lock.Lock()
	defer lock.Unlock()

	// Re-check under the lock: a concurrent caller may have finished the
	// refresh (or the eviction) while we waited.
	s, err := m.store.Get(ctx, merchantID)
	if err != nil {
		if errors.Is(err, sellerstore.ErrNotFound) {
			return nil, ErrNotConnected
		}
		return nil, fmt.Errorf("seller: store lookup: %w", err)
	}
	if !m.needsRefresh(s) {
		return s, nil
	}

	if s.RefreshToken == "" {
		log.Printf("seller %s: token expired with no refresh token, evicting", abbrev(merchantID))
		return nil, m.evict(ctx, merchantID)
	}

	callCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	token, err := m.provider.RefreshToken(callCtx, s.RefreshToken)
	if err != nil {
		log.Printf("seller %s: token refresh failed, evicting: %v", abbrev(merchantID), err)
		return nil, m.evict(ctx, merchantID)
	}

	locations, err := m.provider.ListLocations(callCtx, token.AccessToken)
	if err != nil {
		log.Printf("seller %s: location fetch after refresh failed, evicting: %v", abbrev(merchantID), err)
		return nil, m.evict(ctx, merchantID)
	}

	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = s.RefreshToken
	}
	renewed := &models.Seller{
		MerchantID:   merchantID,
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    token.ExpiryTime(),
		Locations:    locations,
	}
	if err := m.store.Put(ctx, renewed); err != nil {
		return nil, fmt.Errorf("seller: store renewed credential: %w", err)
	}

	log.Printf("seller %s: token refreshed", abbrev(merchantID))
	return renewed, nil
}

func (m *Manager) evict(ctx context.Context, merchantID string) error {
	if err := m.store.Delete(ctx, merchantID); err != nil {
		log.Printf("seller %s: eviction failed: %v", abbrev(merchantID), err)
	}
	return ErrNotConnected
}

func (m *Manager) merchantLock(merchantID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.refreshing[merchantID]
	if !ok {
		lock = &sync.Mutex{}
		m.refreshing[merchantID] = lock
	}
	return lock
}

// abbrev shortens merchant ids for logs; full ids never get logged.
func abbrev(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

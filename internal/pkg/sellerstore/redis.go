package sellerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zorinapay/paybridge/app/models"
	"github.com/zorinapay/paybridge/internal/pkg/env"
)

const redisKeyPrefix = "seller:"

// RedisStore keeps credentials in Redis so they survive a redeploy.
// Entries with a known expiry get a matching TTL plus slack so the
// lifecycle manager still sees them inside the refresh window.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, merchantID string) (*models.Seller, error) {
	val, err := s.client.Get(ctx, redisKeyPrefix+merchantID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sellerstore: redis get: %w", err)
	}

	var seller models.Seller
	if err := json.Unmarshal([]byte(val), &seller); err != nil {
		return nil, fmt.Errorf("sellerstore: decode seller: %w", err)
	}
	return &seller, nil
}

func (s *RedisStore) Put(ctx context.Context, seller *models.Seller) error {
	if seller.AccessToken == "" {
		return ErrEmptyAccessToken
	}
	if seller.MerchantID == "" {
		return errors.New("sellerstore: seller has no merchant id")
	}

	payload, err := json.Marshal(seller)
	if err != nil {
		return fmt.Errorf("sellerstore: encode seller: %w", err)
	}

	var ttl time.Duration // 0 = no expiry
	if seller.ExpiresAt != nil {
		// Keep the entry around past token expiry so a refresh token
		// can still be used to renew it.
		ttl = time.Until(*seller.ExpiresAt) + 24*time.Hour
		if ttl <= 0 {
			ttl = time.Hour
		}
	}

	if err := s.client.Set(ctx, redisKeyPrefix+seller.MerchantID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("sellerstore: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, merchantID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+merchantID).Err(); err != nil {
		return fmt.Errorf("sellerstore: redis del: %w", err)
	}
	return nil
}

// NewStoreFromEnv picks the store backend. SELLER_STORE=redis enables the
// Redis store; anything else falls back to the in-memory map.
func NewStoreFromEnv() Store {
	if env.GetEnv("SELLER_STORE", "memory") != "redis" {
		return NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", env.GetEnv("REDIS_HOST", "localhost"), env.GetEnv("REDIS_PORT", "6379")),
		Password: env.GetEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("Warning: could not connect to Redis, falling back to in-memory seller store: %v", err)
		return NewMemoryStore()
	}
	return NewRedisStore(client)
}

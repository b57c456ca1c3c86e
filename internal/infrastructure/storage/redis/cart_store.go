// Package redis provides the Redis-backed storefront storage: cart
// sessions and social-proof counters. Carts are ephemeral; nothing here
// survives the TTL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain/cart"
)

const (
	cartKeyPrefix    = "cart:"
	counterKeyPrefix = "widget:proof:"

	// counterWindow bounds how long a social-proof counter accumulates.
	counterWindow = time.Hour
)

// CartStore implements cart.Store on Redis.
type CartStore struct {
	client *redis.Client
}

var _ cart.Store = (*CartStore)(nil)

// NewCartStore creates the cart store.
func NewCartStore(client *redis.Client) *CartStore {
	return &CartStore{client: client}
}

func cartKey(sessionID string) string {
	return cartKeyPrefix + sessionID
}

// Get loads a cart by session id.
func (s *CartStore) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	raw, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperror.NewNotFound("cart", sessionID)
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

// Save persists the cart and refreshes its TTL.
func (s *CartStore) Save(ctx context.Context, c *cart.Cart, ttl time.Duration) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}

	if err := s.client.Set(ctx, cartKey(c.SessionID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Delete removes the cart. Missing keys are not an error.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

// ProofCounter implements cart.SocialProofCounter on Redis INCR with a
// sliding expiry.
type ProofCounter struct {
	client *redis.Client
}

var _ cart.SocialProofCounter = (*ProofCounter)(nil)

// NewProofCounter creates the social-proof counter.
func NewProofCounter(client *redis.Client) *ProofCounter {
	return &ProofCounter{client: client}
}

func counterKey(siteID id.ID, event string) string {
	return counterKeyPrefix + siteID.String() + ":" + event
}

// Increment bumps the counter and refreshes its window.
func (p *ProofCounter) Increment(ctx context.Context, siteID id.ID, event string) (int64, error) {
	key := counterKey(siteID, event)

	pipe := p.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, counterWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}

	return incr.Val(), nil
}

// Current reads the counter; a missing key reads as zero.
func (p *ProofCounter) Current(ctx context.Context, siteID id.ID, event string) (int64, error) {
	val, err := p.client.Get(ctx, counterKey(siteID, event)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read counter: %w", err)
	}
	return val, nil
}

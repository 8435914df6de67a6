package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/smartstore/internal/domain/cart"
)

// CartStore loads and saves carts keyed by session ID. A missing key is an
// empty cart, never an error.
type CartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCartStore returns a CartStore with the given idle TTL. A zero ttl falls
// back to DefaultTTL.
func NewCartStore(rdb *redis.Client, ttl time.Duration) *CartStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CartStore{rdb: rdb, ttl: ttl}
}

// Load returns the session's cart, or a fresh empty cart when none is stored.
func (s *CartStore) Load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	data, err := s.rdb.GetEx(ctx, cartKey(sessionID), s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &cart.Cart{}, nil
		}
		return nil, errors.Wrap(err, "load cart")
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return &c, nil
}

// Save persists the cart and refreshes its TTL.
func (s *CartStore) Save(ctx context.Context, sessionID string, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	if err := s.rdb.Set(ctx, cartKey(sessionID), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return nil
}

// Delete removes the session's cart. Deleting a missing cart is a no-op.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "delete cart")
	}
	return nil
}

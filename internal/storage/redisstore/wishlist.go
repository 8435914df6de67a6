package redisstore

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// WishlistStore keeps the session's wishlist as a Redis set of product IDs.
type WishlistStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewWishlistStore returns a WishlistStore with the given idle TTL. A zero
// ttl falls back to DefaultTTL.
func NewWishlistStore(rdb *redis.Client, ttl time.Duration) *WishlistStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &WishlistStore{rdb: rdb, ttl: ttl}
}

// Add puts a product ID into the wishlist. Adding an ID twice is a no-op.
func (s *WishlistStore) Add(ctx context.Context, sessionID, productID string) error {
	key := wishlistKey(sessionID)
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, key, productID)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "add to wishlist")
	}
	return nil
}

// Remove drops a product ID from the wishlist. Removing an absent ID is a
// no-op.
func (s *WishlistStore) Remove(ctx context.Context, sessionID, productID string) error {
	if err := s.rdb.SRem(ctx, wishlistKey(sessionID), productID).Err(); err != nil {
		return errors.Wrap(err, "remove from wishlist")
	}
	return nil
}

// List returns the product IDs in the wishlist. Order is unspecified.
func (s *WishlistStore) List(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, wishlistKey(sessionID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list wishlist")
	}
	return ids, nil
}

// Count returns the number of products in the wishlist.
func (s *WishlistStore) Count(ctx context.Context, sessionID string) (int, error) {
	n, err := s.rdb.SCard(ctx, wishlistKey(sessionID)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "count wishlist")
	}
	return int(n), nil
}

// Delete removes the session's wishlist.
func (s *WishlistStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, wishlistKey(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "delete wishlist")
	}
	return nil
}

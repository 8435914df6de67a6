package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/smartstore/internal/domain/checkout"
)

// FlowStore persists the per-session checkout flow. A missing key is a fresh
// flow at the shipping step.
type FlowStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFlowStore returns a FlowStore with the given idle TTL. A zero ttl falls
// back to DefaultTTL.
func NewFlowStore(rdb *redis.Client, ttl time.Duration) *FlowStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FlowStore{rdb: rdb, ttl: ttl}
}

// Load returns the session's checkout flow, starting a new one when none is
// stored.
func (s *FlowStore) Load(ctx context.Context, sessionID string) (*checkout.Flow, error) {
	data, err := s.rdb.GetEx(ctx, checkoutKey(sessionID), s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return checkout.NewFlow(), nil
		}
		return nil, errors.Wrap(err, "load checkout flow")
	}

	var f checkout.Flow
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode checkout flow")
	}
	return &f, nil
}

// Save persists the flow and refreshes its TTL.
func (s *FlowStore) Save(ctx context.Context, sessionID string, f *checkout.Flow) error {
	data, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "encode checkout flow")
	}
	if err := s.rdb.Set(ctx, checkoutKey(sessionID), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "save checkout flow")
	}
	return nil
}

// Delete removes the session's checkout flow.
func (s *FlowStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, checkoutKey(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "delete checkout flow")
	}
	return nil
}

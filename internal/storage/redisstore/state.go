package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/smartstore/internal/appstate"
)

// StateStore persists the per-session UI state snapshot. A missing key is the
// zero state.
type StateStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStateStore returns a StateStore with the given idle TTL. A zero ttl
// falls back to DefaultTTL.
func NewStateStore(rdb *redis.Client, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StateStore{rdb: rdb, ttl: ttl}
}

// Load returns the session's state snapshot.
func (s *StateStore) Load(ctx context.Context, sessionID string) (appstate.State, error) {
	data, err := s.rdb.GetEx(ctx, stateKey(sessionID), s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appstate.State{}, nil
		}
		return appstate.State{}, errors.Wrap(err, "load app state")
	}

	var st appstate.State
	if err := json.Unmarshal(data, &st); err != nil {
		return appstate.State{}, errors.Wrap(err, "decode app state")
	}
	return st, nil
}

// Dispatch loads the session state, reduces the action into it, and persists
// the result. The returned state is the post-action snapshot.
func (s *StateStore) Dispatch(ctx context.Context, sessionID string, a appstate.Action) (appstate.State, error) {
	st, err := s.Load(ctx, sessionID)
	if err != nil {
		return appstate.State{}, err
	}

	st = appstate.Reduce(st, a)

	data, err := json.Marshal(st)
	if err != nil {
		return appstate.State{}, errors.Wrap(err, "encode app state")
	}
	if err := s.rdb.Set(ctx, stateKey(sessionID), data, s.ttl).Err(); err != nil {
		return appstate.State{}, errors.Wrap(err, "save app state")
	}
	return st, nil
}

// Delete removes the session's state snapshot.
func (s *StateStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, stateKey(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "delete app state")
	}
	return nil
}

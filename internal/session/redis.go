package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

const sessionKey = "session:tokens:"

// RedisProvider stores session tokens in Redis with a sliding TTL.
type RedisProvider struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Provider = (*RedisProvider)(nil)

// NewRedisProvider returns a Provider backed by the given Redis client.
func NewRedisProvider(rdb *redis.Client, ttl time.Duration) *RedisProvider {
	return &RedisProvider{rdb: rdb, ttl: ttl}
}

// GetToken loads the access token and refreshes the session TTL.
func (p *RedisProvider) GetToken(ctx context.Context, sessionID string) (string, error) {
	data, err := p.rdb.GetEx(ctx, sessionKey+sessionID, p.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoSession
		}
		return "", errors.Wrap(err, "get session tokens")
	}

	var t Tokens
	if err := json.Unmarshal(data, &t); err != nil {
		return "", errors.Wrap(err, "decode session tokens")
	}
	return t.Access, nil
}

func (p *RedisProvider) SetTokens(ctx context.Context, sessionID string, t Tokens) error {
	data, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "encode session tokens")
	}
	if err := p.rdb.Set(ctx, sessionKey+sessionID, data, p.ttl).Err(); err != nil {
		return errors.Wrap(err, "store session tokens")
	}
	return nil
}

func (p *RedisProvider) Clear(ctx context.Context, sessionID string) error {
	if err := p.rdb.Del(ctx, sessionKey+sessionID).Err(); err != nil {
		return errors.Wrap(err, "clear session tokens")
	}
	return nil
}

package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSessionKeyPrefix namespaces session keys in a shared Redis.
const RedisSessionKeyPrefix = "eventbook:session:"

// RedisSessionStore keeps sessions in Redis so several server processes share them.
type RedisSessionStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client redis.UniversalClient, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

// Create stores the session as JSON under a fresh token with the store TTL.
// PRE: s.AccountID is non-empty
// POST: the key expires after ttl
func (rs *RedisSessionStore) Create(ctx context.Context, s Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	if err := rs.client.Set(ctx, RedisSessionKeyPrefix+token, payload, rs.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Get loads a session. Redis errors are logged and treated as a missing session.
func (rs *RedisSessionStore) Get(ctx context.Context, token string) (Session, bool) {
	raw, err := rs.client.Get(ctx, RedisSessionKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return Session{}, false
	}
	if err != nil {
		zap.L().Warn("session_lookup_failed", zap.Error(err))
		return Session{}, false
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		zap.L().Warn("session_decode_failed", zap.Error(err))
		return Session{}, false
	}
	return s, true
}

// Delete removes a session.
func (rs *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return rs.client.Del(ctx, RedisSessionKeyPrefix+token).Err()
}

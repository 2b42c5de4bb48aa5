package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdempotencyStore remembers the response of a completed request keyed by a
// client-supplied idempotency key, so retries replay the original outcome
// instead of executing twice.
type IdempotencyStore interface {
	// Get returns the stored response for key, or ok=false on a miss.
	Get(ctx context.Context, key string) (payload []byte, ok bool)
	// Put stores the response for key. Best effort.
	Put(ctx context.Context, key string, payload []byte)
}

type RedisIdempotencyStore struct {
	logger *zap.Logger
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyStore(logger *zap.Logger, client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{logger: logger, client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("idempotency lookup failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return payload, true
}

func (s *RedisIdempotencyStore) Put(ctx context.Context, key string, payload []byte) {
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.logger.Warn("idempotency store failed", zap.String("key", key), zap.Error(err))
	}
}

// NoopIdempotencyStore is used when Redis is not configured; every lookup
// misses and nothing is stored.
type NoopIdempotencyStore struct{}

func (NoopIdempotencyStore) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }
func (NoopIdempotencyStore) Put(ctx context.Context, key string, payload []byte) {}

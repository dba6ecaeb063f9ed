package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/eldtechnologies/omnidesk/internal/metrics"
)

// RedisStore keeps bearer tokens in Redis so they survive server restarts
// and are shared between instances.
type RedisStore struct {
	client *redis.Client
}

var _ TokenStore = (*RedisStore)(nil)

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// tokenKey returns the key holding a token's user id.
func tokenKey(token string) string {
	return fmt.Sprintf("token:%s", token)
}

// SaveToken stores token for ttl; zero ttl never expires.
func (s *RedisStore) SaveToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	start := time.Now()
	defer func() { metrics.RedisLatency.Observe(time.Since(start).Seconds()) }()

	return s.client.Set(ctx, tokenKey(token), userID.String(), ttl).Err()
}

// ResolveToken returns the token's user or ErrTokenNotFound.
func (s *RedisStore) ResolveToken(ctx context.Context, token string) (uuid.UUID, error) {
	start := time.Now()
	defer func() { metrics.RedisLatency.Observe(time.Since(start).Seconds()) }()

	val, err := s.client.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrTokenNotFound
	}
	return id, nil
}

// RevokeToken deletes token.
func (s *RedisStore) RevokeToken(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKey(token)).Err()
}

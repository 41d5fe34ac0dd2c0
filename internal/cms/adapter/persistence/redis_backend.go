package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "studio-cms/internal/shared/errors"

	"github.com/redis/go-redis/v9"
)

// BackendRedis is the name reported for a direct Redis connection
const BackendRedis = "redis"

// RedisBackend stores each collection as JSON text under its key.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps an existing client. The backend owns the client and
// closes it on Close.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// Name returns the backend name
func (r *RedisBackend) Name() string { return BackendRedis }

// Ping checks the connection
func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get returns the stored JSON, or nil when the key does not exist
func (r *RedisBackend) Get(ctx context.Context, key string) (json.RawMessage, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("redis key %q: %w", key, apperrors.ErrMalformedStorage)
	}
	return json.RawMessage(data), nil
}

// Set stores value as JSON text with no expiry
func (r *RedisBackend) Set(ctx context.Context, key string, value json.RawMessage) error {
	return r.client.Set(ctx, key, []byte(value), 0).Err()
}

// Close releases the client
func (r *RedisBackend) Close() error {
	return r.client.Close()
}

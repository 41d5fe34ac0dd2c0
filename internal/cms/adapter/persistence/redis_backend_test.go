package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "studio-cms/internal/shared/errors"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestRedisClient creates a Redis client for testing
func createTestRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         "localhost:6379",
		DB:           15,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func TestRedisBackend_SetGet(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := createTestRedisClient()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skip("Redis not available for testing:", err)
	}
	defer func() {
		client.FlushDB(context.Background())
	}()

	backend := NewRedisBackend(client)
	defer backend.Close()

	value, err := backend.Get(ctx, "projects")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, backend.Set(ctx, "projects", json.RawMessage(`[{"id":1,"title":"A"}]`)))
	value, err = backend.Get(ctx, "projects")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"title":"A"}]`, string(value))

	require.NoError(t, client.Set(ctx, "settings", "garbage", 0).Err())
	_, err = backend.Get(ctx, "settings")
	assert.True(t, errors.Is(err, apperrors.ErrMalformedStorage))
}

func TestRedisBackend_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	backend := NewRedisBackend(client)
	defer backend.Close()

	assert.Error(t, backend.Ping(context.Background()))
	_, err := backend.Get(context.Background(), "projects")
	assert.Error(t, err)
}

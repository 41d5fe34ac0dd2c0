package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearStorageEnv(t *testing.T) {
	for _, k := range []string{
		"KV_REST_API_URL", "KV_REST_API_TOKEN", "UPSTASH_REDIS_REST_URL", "UPSTASH_REDIS_REST_TOKEN",
		"REDIS_URL", "MONGODB_URI", "VERCEL", "ENVIRONMENT", "DATA_DIR",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("DATA_DIR", "/tmp/data")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/data", cfg.DataDir)
	assert.Equal(t, 5*time.Second, cfg.KVTimeout)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.RequireAuth)
}

func TestLoadConfig_InvalidKVURL(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("KV_REST_API_URL", "not a url")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestIsProduction(t *testing.T) {
	cases := []struct {
		vercel, env string
		want        bool
	}{
		{"1", "", true},
		{"", "production", true},
		{"", "PROD", true},
		{"", "development", false},
		{"0", "staging", false},
	}
	for _, tc := range cases {
		cfg := &StorageConfig{Vercel: tc.vercel, Environment: tc.env}
		assert.Equal(t, tc.want, cfg.IsProduction(), "vercel=%q env=%q", tc.vercel, tc.env)
	}
}

func TestKVEndpoint_Precedence(t *testing.T) {
	cfg := &StorageConfig{
		KVRestURL: "https://kv.example.com/", KVRestToken: "a",
		UpstashRestURL: "https://up.example.com", UpstashRestToken: "b",
	}
	url, token := cfg.KVEndpoint()
	assert.Equal(t, "https://kv.example.com", url)
	assert.Equal(t, "a", token)

	cfg.KVRestURL = ""
	url, token = cfg.KVEndpoint()
	assert.Equal(t, "https://up.example.com", url)
	assert.Equal(t, "b", token)
}

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient("redis://:secret@localhost:6380/2")
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "localhost:6380", client.Options().Addr)
	assert.Equal(t, 2, client.Options().DB)
	assert.Equal(t, "secret", client.Options().Password)

	_, err = NewRedisClient("http://nope")
	assert.Error(t, err)
}

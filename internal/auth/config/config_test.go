package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var authEnv = []string{
	"ADMIN_USERNAME", "ADMIN_PASSWORD", "ADMIN_PASSWORD_HASH",
	"JWT_SECRET_KEY", "JWT_ISSUER", "ACCESS_TOKEN_TTL",
	"COOKIE_NAME", "COOKIE_SAME_SITE", "LOGIN_RATE_LIMIT",
}

func clearAuthEnv(t *testing.T) {
	t.Helper()
	for _, key := range authEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearAuthEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminUsername, cfg.AdminUsername)
	assert.Equal(t, DefaultAdminPassword, cfg.AdminPassword)
	assert.True(t, cfg.UsesDefaultCredentials())
	assert.True(t, cfg.GeneratedSecret)
	assert.NotEmpty(t, cfg.JWTSecretKey)
	assert.Equal(t, 12*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, "Lax", cfg.CookieSameSite)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("ADMIN_USERNAME", "editor")
	t.Setenv("ADMIN_PASSWORD", "s3cret-pass")
	t.Setenv("JWT_SECRET_KEY", "test-secret-key-32-characters-long-12345")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("COOKIE_SAME_SITE", "strict")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "editor", cfg.AdminUsername)
	assert.False(t, cfg.UsesDefaultCredentials())
	assert.False(t, cfg.GeneratedSecret)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "Strict", cfg.CookieSameSite)
}

func TestLoadConfig_InvalidSameSite(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("COOKIE_SAME_SITE", "sometimes")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestFinalize_RequiresPassword(t *testing.T) {
	cfg := &Config{AdminUsername: "admin", CookieName: "c", CookieSameSite: "Lax", AccessTokenTTL: time.Hour, LoginRateLimit: 1}
	assert.Error(t, cfg.Finalize())

	cfg.AdminPasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
	assert.NoError(t, cfg.Finalize())
}

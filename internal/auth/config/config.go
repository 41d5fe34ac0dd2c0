package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Default admin credentials used when the environment sets none
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

// Config holds all configuration for the auth module.
type Config struct {
	// Admin credentials. ADMIN_PASSWORD_HASH (bcrypt) wins over ADMIN_PASSWORD.
	AdminUsername     string `env:"ADMIN_USERNAME" envDefault:"admin" validate:"required,max=100"`
	AdminPassword     string `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	// JWT Configuration. An empty secret is replaced by a random one per process.
	JWTSecretKey   string        `env:"JWT_SECRET_KEY"`
	JWTIssuer      string        `env:"JWT_ISSUER" envDefault:"studio-cms"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"12h" validate:"gt=0"`

	// Cookie Configuration
	CookieName     string `env:"COOKIE_NAME" envDefault:"cms_admin_token" validate:"required"`
	CookiePath     string `env:"COOKIE_PATH" envDefault:"/"`
	CookieDomain   string `env:"COOKIE_DOMAIN" envDefault:""`
	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"false"`
	CookieHTTPOnly bool   `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSameSite string `env:"COOKIE_SAME_SITE" envDefault:"Lax" validate:"oneof=Lax Strict None"`

	// LoginRateLimit is the number of login attempts per minute and client.
	LoginRateLimit int `env:"LOGIN_RATE_LIMIT" envDefault:"10" validate:"gte=1"`

	// GeneratedSecret is set when JWTSecretKey was not configured.
	GeneratedSecret bool `env:"-"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load auth configuration from environment: %w", err)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize normalizes and validates a config built by hand or by LoadConfig.
func (c *Config) Finalize() error {
	if c.CookieSameSite != "" {
		lower := strings.ToLower(c.CookieSameSite)
		c.CookieSameSite = strings.ToUpper(lower[:1]) + lower[1:]
	}
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		return errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}
	if c.JWTSecretKey == "" {
		c.JWTSecretKey = uuid.NewString() + uuid.NewString()
		c.GeneratedSecret = true
	}
	if c.JWTIssuer == "" {
		c.JWTIssuer = "studio-cms"
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid auth configuration: %w", err)
	}
	return nil
}

// UsesDefaultCredentials reports whether the built-in admin password is active
func (c *Config) UsesDefaultCredentials() bool {
	return c.AdminPasswordHash == "" && c.AdminPassword == DefaultAdminPassword
}

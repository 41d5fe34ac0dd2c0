package auth

import (
	"fmt"

	authhttp "studio-cms/internal/auth/adapter/http"
	"studio-cms/internal/auth/adapter/persistence/memory"
	"studio-cms/internal/auth/adapter/security"
	"studio-cms/internal/auth/config"
	"studio-cms/internal/auth/domain/repository"
	"studio-cms/internal/auth/usecase"
	"studio-cms/internal/shared/eventbus"
	"studio-cms/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// AuthModule represents the complete authentication module
type AuthModule struct {
	repository repository.AdminRepository
	tokenSvc   repository.TokenService
	usecase    usecase.AuthUsecaseInterface
	handler    *authhttp.AuthHTTPHandler
	middleware *authhttp.AuthMiddleware
	config     *config.Config
}

// NewAuthModule creates a new authentication module instance
func NewAuthModule(cfg *config.Config, bus eventbus.EventBusInterface, log logger.Logger) (*AuthModule, error) {
	if log == nil {
		log = logger.Nop()
	}

	adminRepo, err := memory.NewAdminRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin repository: %w", err)
	}

	tokenSvc, err := security.NewJWTokenService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	authUsecase := usecase.NewAuthUsecase(adminRepo, tokenSvc, bus, log)

	handler := authhttp.NewAuthHTTPHandler(authUsecase, authhttp.CookieConfig{
		Name:     cfg.CookieName,
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		MaxAge:   int(cfg.AccessTokenTTL.Seconds()),
		Secure:   cfg.CookieSecure,
		HTTPOnly: cfg.CookieHTTPOnly,
		SameSite: cfg.CookieSameSite,
	})

	if cfg.UsesDefaultCredentials() {
		log.Warn("Admin login uses the default password; set ADMIN_PASSWORD or ADMIN_PASSWORD_HASH")
	}
	if cfg.GeneratedSecret {
		log.Warn("JWT_SECRET_KEY is not set; tokens will not survive a restart")
	}

	return &AuthModule{
		repository: adminRepo,
		tokenSvc:   tokenSvc,
		usecase:    authUsecase,
		handler:    handler,
		middleware: authhttp.NewAuthMiddleware(authUsecase, cfg.CookieName),
		config:     cfg,
	}, nil
}

// RegisterRoutes registers authentication routes with the provided router
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	am.handler.SetupAuthRoutesWithMiddleware(router, am.middleware, am.config.LoginRateLimit)
}

// GetUsecase returns the auth usecase for external access
func (am *AuthModule) GetUsecase() usecase.AuthUsecaseInterface {
	return am.usecase
}

// GetMiddleware returns the auth middleware
func (am *AuthModule) GetMiddleware() *authhttp.AuthMiddleware {
	return am.middleware
}

// Stop performs cleanup when the module is shut down
func (am *AuthModule) Stop() error {
	return nil
}

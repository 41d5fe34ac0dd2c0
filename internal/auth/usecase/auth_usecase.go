package usecase

import (
	"context"
	stdErrors "errors"
	"time"

	"studio-cms/internal/auth/domain/model"
	"studio-cms/internal/auth/domain/repository"
	"studio-cms/internal/shared/errors"
	"studio-cms/internal/shared/eventbus"
	"studio-cms/internal/shared/logger"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

// AuthUsecaseInterface defines the contract for authentication use cases.
type AuthUsecaseInterface interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error)
	CurrentAdmin(ctx context.Context, username string) (*model.Admin, error)
}

// LoginRequest represents the login request
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=128"`
}

// AuthResponse is returned on a successful login
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Admin     *model.Admin `json:"admin"`
}

// AdminLoggedIn is the payload of eventbus.EventTypeAdminLoggedIn
type AdminLoggedIn struct {
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

// AuthUsecase implements the authentication logic.
type AuthUsecase struct {
	repo     repository.AdminRepository
	tokenSvc repository.TokenService
	bus      eventbus.EventBusInterface
	log      logger.Logger
	now      func() time.Time
}

// NewAuthUsecase creates a new instance of AuthUsecase. bus may be nil.
func NewAuthUsecase(
	repo repository.AdminRepository,
	tokenSvc repository.TokenService,
	bus eventbus.EventBusInterface,
	log logger.Logger,
) *AuthUsecase {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUsecase{
		repo:     repo,
		tokenSvc: tokenSvc,
		bus:      bus,
		log:      log.WithComponent("auth"),
		now:      time.Now,
	}
}

// Login checks the credentials and issues a token.
// Unknown users and wrong passwords fail the same way.
func (uc *AuthUsecase) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, errors.NewValidationError("username and password are required").WithCause(err)
	}

	admin, err := uc.repo.GetAdmin(ctx, req.Username)
	if err != nil {
		if stdErrors.Is(err, model.ErrAdminNotFound) {
			uc.log.WithContext(ctx).Warnf("Login rejected for unknown user %q", req.Username)
			return nil, errors.NewAuthenticationError(model.ErrInvalidCredentials.Error()).WithCause(model.ErrInvalidCredentials)
		}
		return nil, errors.WrapError(err, "failed to load admin")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		uc.log.WithContext(ctx).Warnf("Login rejected for %q: wrong password", req.Username)
		return nil, errors.NewAuthenticationError(model.ErrInvalidCredentials.Error()).WithCause(model.ErrInvalidCredentials)
	}

	token, expiresAt, err := uc.tokenSvc.GenerateToken(ctx, admin.Username, admin.Role)
	if err != nil {
		return nil, errors.WrapError(err, "failed to generate token")
	}

	now := uc.now()
	if err := uc.repo.RecordLogin(ctx, admin.Username, now); err != nil {
		uc.log.WithContext(ctx).Warnf("Failed to record login for %s: %v", admin.Username, err)
	}
	admin.LastLoginAt = now

	if uc.bus != nil {
		uc.bus.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(
			eventbus.EventTypeAdminLoggedIn,
			AdminLoggedIn{Username: admin.Username, At: now},
			"auth",
		))
	}
	uc.log.WithContext(ctx).Infof("Admin %s logged in", admin.Username)

	return &AuthResponse{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

// ValidateToken validates a token and checks the admin role
func (uc *AuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, errors.NewAuthenticationError("invalid token").WithCause(err)
	}
	if !claims.HasRole(model.RoleAdmin) {
		return nil, errors.NewAuthenticationError("insufficient permissions")
	}
	return claims, nil
}

// CurrentAdmin returns the account behind a validated token
func (uc *AuthUsecase) CurrentAdmin(ctx context.Context, username string) (*model.Admin, error) {
	admin, err := uc.repo.GetAdmin(ctx, username)
	if err != nil {
		if stdErrors.Is(err, model.ErrAdminNotFound) {
			return nil, errors.NewNotFoundError("Admin")
		}
		return nil, errors.WrapError(err, "failed to load admin")
	}
	return admin, nil
}

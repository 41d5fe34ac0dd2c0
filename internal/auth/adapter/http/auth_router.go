package http

import (
	"encoding/json"
	"time"

	"studio-cms/internal/auth/usecase"
	"studio-cms/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// CookieConfig describes the session cookie set on login
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite string
}

// AuthHTTPHandler handles HTTP requests for authentication
type AuthHTTPHandler struct {
	usecase usecase.AuthUsecaseInterface
	cookie  CookieConfig
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(uc usecase.AuthUsecaseInterface, cookie CookieConfig) *AuthHTTPHandler {
	return &AuthHTTPHandler{usecase: uc, cookie: cookie}
}

// SetupAuthRoutesWithMiddleware sets up authentication routes with middleware
func (h *AuthHTTPHandler) SetupAuthRoutesWithMiddleware(router fiber.Router, middleware *AuthMiddleware, loginLimit int) {
	router.Post("/login", middleware.RateLimiter(loginLimit), h.Login)
	router.Post("/logout", h.Logout)
	router.Get("/me", middleware.Protect(), h.Me)
}

// Login handles admin login
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	var req usecase.LoginRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	response, err := h.usecase.Login(c.UserContext(), req)
	if err != nil {
		if errors.IsAuthentication(err) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid username or password",
			})
		}
		return c.Status(errors.HTTPStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.setCookie(c, response.Token, response.ExpiresAt)
	return c.JSON(response)
}

// Logout clears the session cookie. Tokens are stateless and stay valid
// until they expire.
func (h *AuthHTTPHandler) Logout(c *fiber.Ctx) error {
	h.clearCookie(c)
	return c.JSON(fiber.Map{"success": true})
}

// Me returns the authenticated admin
func (h *AuthHTTPHandler) Me(c *fiber.Ctx) error {
	claims, ok := GetClaims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	admin, err := h.usecase.CurrentAdmin(c.UserContext(), claims.Username)
	if err != nil {
		return c.Status(errors.HTTPStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"admin":     admin,
		"expiresAt": claims.ExpiresAt,
	})
}

func (h *AuthHTTPHandler) setCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   h.cookie.MaxAge,
		Secure:   h.cookie.Secure,
		HTTPOnly: h.cookie.HTTPOnly,
		SameSite: h.cookie.SameSite,
		Expires:  expires,
	})
}

func (h *AuthHTTPHandler) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		Secure:   h.cookie.Secure,
		HTTPOnly: h.cookie.HTTPOnly,
		SameSite: h.cookie.SameSite,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

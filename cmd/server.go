package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	authhttp "studio-cms/internal/auth/adapter/http"
	"studio-cms/internal/di"
	apperrors "studio-cms/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// devOrigin is the admin frontend dev server
const devOrigin = "http://localhost:5173"

// ServerConfig holds server configuration
type ServerConfig struct {
	Host        string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port        string `env:"PORT" envDefault:"3001"`
	FrontendURL string `env:"FRONTEND_URL"`
	BodyLimitMB int    `env:"BODY_LIMIT_MB" envDefault:"10"`
}

// NewServer builds the Fiber app over an initialized container.
func NewServer(serverCfg *ServerConfig, container *di.Container) *fiber.App {
	appLogger := container.Logger
	cmsModule := container.GetCMSModule()
	production := cmsModule != nil && cmsModule.Config.IsProduction()

	app := fiber.New(fiber.Config{
		AppName:               "Studio CMS",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           60 * time.Second,
		BodyLimit:             serverCfg.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: production,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := apperrors.HTTPStatus(err)
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			if code >= fiber.StatusInternalServerError {
				appLogger.Errorf("HTTP Error: %v", err)
				return c.Status(code).JSON(fiber.Map{"error": "Internal Server Error"})
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(authhttp.RequestID())
	app.Use(authhttp.CORS(allowedOrigins(serverCfg, production)))
	if container.Metrics != nil {
		app.Use(container.Metrics.Middleware())
		app.Get("/metrics", adaptor.HTTPHandler(container.Metrics.Handler()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		health := container.Health()
		if err := container.HealthCheck(healthCtx); err != nil {
			appLogger.Warnf("Health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(health)
		}
		return c.JSON(health)
	})

	var guard fiber.Handler
	if authModule := container.GetAuthModule(); authModule != nil {
		app.Use(authModule.GetMiddleware().SecurityHeaders())
		authModule.RegisterRoutes(app.Group("/api/auth"))
		if cmsModule != nil && cmsModule.Config.RequireAuth {
			guard = authModule.GetMiddleware().Protect()
		}
	}

	if cmsModule != nil {
		cmsModule.RegisterRoutes(app, guard)
		if production {
			serveSPA(app, cmsModule.Config.StaticDir)
		}
	}

	return app
}

func allowedOrigins(cfg *ServerConfig, production bool) string {
	if production {
		return cfg.FrontendURL
	}
	if cfg.FrontendURL != "" && cfg.FrontendURL != devOrigin {
		return devOrigin + "," + cfg.FrontendURL
	}
	return devOrigin
}

// serveSPA serves the built admin frontend and falls back to index.html for
// client-side routes. API and upload paths keep their 404s.
func serveSPA(app *fiber.App, dir string) {
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return
	}
	app.Static("/", dir)
	app.Get("/*", func(c *fiber.Ctx) error {
		path := c.Path()
		if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/uploads/") || strings.HasPrefix(path, "/ws/") {
			return fiber.ErrNotFound
		}
		return c.SendFile(index)
	})
}

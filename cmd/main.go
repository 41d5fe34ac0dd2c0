package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authconfig "studio-cms/internal/auth/config"
	cmsconfig "studio-cms/internal/cms/config"
	"studio-cms/internal/di"
	"studio-cms/internal/shared/logger"
	"studio-cms/internal/shared/metrics"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

func main() {
	// .env.local overrides .env; both are optional
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: Could not load %s: %v", file, err)
		}
	}

	serverCfg := &ServerConfig{}
	if err := env.Parse(serverCfg); err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Studio CMS - starting application")

	storageCfg, err := cmsconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load storage configuration: %v", err)
	}
	authCfg, err := authconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load auth configuration: %v", err)
	}

	container := di.NewContainer(appLogger, metrics.NewCollector("studio_cms"))
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	if err := container.InitializeAuth(authCfg); err != nil {
		log.Fatalf("Failed to initialize auth module: %v", err)
	}
	appLogger.Info("Auth module initialized successfully")

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = container.InitializeCMS(initCtx, storageCfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize CMS module: %v", err)
	}
	appLogger.Info("CMS module initialized successfully")

	app := NewServer(serverCfg, container)

	serverAddr := fmt.Sprintf("%s:%s", serverCfg.Host, serverCfg.Port)
	appLogger.Infof("All modules initialized. Starting HTTP server on %s", serverAddr)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			appLogger.Errorf("Server failed to start: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}

		appLogger.Info("HTTP server stopped")
	}
}

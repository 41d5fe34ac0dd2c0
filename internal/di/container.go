package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"studio-cms/internal/auth"
	authconfig "studio-cms/internal/auth/config"
	"studio-cms/internal/cms"
	cmsconfig "studio-cms/internal/cms/config"
	"studio-cms/internal/shared/eventbus"
	"studio-cms/internal/shared/logger"
	"studio-cms/internal/shared/metrics"

	"github.com/sony/gobreaker"
)

// Container represents a dependency injection container with proper lifecycle management.
// Modules live in the service registry; the event bus is built lazily by a
// factory so every module resolves the same instance.
type Container struct {
	mu        sync.RWMutex
	services  map[reflect.Type]interface{}
	factories map[reflect.Type]func() (interface{}, error)
	// Shared infrastructure
	Metrics *metrics.Collector
	// Configuration
	AuthConfig    *authconfig.Config
	StorageConfig *cmsconfig.StorageConfig
	// Logger
	Logger logger.Logger
}

// HealthStatus is the payload served by /health
type HealthStatus struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Breaker string `json:"breaker,omitempty"`
}

// NewContainer creates a container sharing one event bus and metrics collector.
func NewContainer(log logger.Logger, m *metrics.Collector) *Container {
	if log == nil {
		log = logger.Nop()
	}
	c := &Container{
		services:  make(map[reflect.Type]interface{}),
		factories: make(map[reflect.Type]func() (interface{}, error)),
		Metrics:   m,
		Logger:    log,
	}
	_ = c.RegisterFactory(reflect.TypeOf(eventbus.EventBus{}), func() (interface{}, error) {
		return eventbus.NewEventBus(log.WithComponent("eventbus")), nil
	})
	return c
}

// InitializeAuth initializes the admin authentication module
func (c *Container) InitializeAuth(authConfig *authconfig.Config) error {
	bus, err := GetService[*eventbus.EventBus](c)
	if err != nil {
		return fmt.Errorf("failed to resolve event bus: %w", err)
	}

	authModule, err := auth.NewAuthModule(authConfig, bus, c.Logger.WithComponent("auth"))
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}

	c.mu.Lock()
	c.AuthConfig = authConfig
	c.mu.Unlock()
	return c.Register(authModule)
}

// InitializeCMS resolves the storage backend and builds the content module.
func (c *Container) InitializeCMS(ctx context.Context, storageConfig *cmsconfig.StorageConfig) error {
	if storageConfig == nil {
		return fmt.Errorf("storage configuration is required")
	}
	if err := storageConfig.Validate(); err != nil {
		return err
	}
	bus, err := GetService[*eventbus.EventBus](c)
	if err != nil {
		return fmt.Errorf("failed to resolve event bus: %w", err)
	}

	cmsModule := cms.NewCMSModule(ctx, storageConfig, bus, c.Metrics, c.Logger.WithComponent("cms"))

	c.mu.Lock()
	c.StorageConfig = storageConfig
	c.mu.Unlock()
	return c.Register(cmsModule)
}

// Register registers a service instance
func (c *Container) Register(service interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	serviceType := reflect.TypeOf(service)
	if serviceType == nil {
		return fmt.Errorf("cannot register a nil service")
	}
	if serviceType.Kind() == reflect.Ptr {
		serviceType = serviceType.Elem()
	}

	c.services[serviceType] = service
	return nil
}

// RegisterFactory registers a factory function for a service
func (c *Container) RegisterFactory(serviceType reflect.Type, factory func() (interface{}, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.factories[serviceType] = factory
	return nil
}

// Resolve resolves a service by type
func (c *Container) Resolve(serviceType reflect.Type) (interface{}, error) {
	c.mu.RLock()

	if service, exists := c.services[serviceType]; exists {
		c.mu.RUnlock()
		return service, nil
	}

	if factory, exists := c.factories[serviceType]; exists {
		c.mu.RUnlock()

		service, err := factory()
		if err != nil {
			return nil, fmt.Errorf("failed to create service: %w", err)
		}

		c.mu.Lock()
		c.services[serviceType] = service
		c.mu.Unlock()

		return service, nil
	}

	c.mu.RUnlock()
	return nil, fmt.Errorf("service of type %v not registered", serviceType)
}

// GetService is a generic helper for resolving services. Pointer types are
// looked up by their element type, matching Register.
func GetService[T any](c *Container) (T, error) {
	var zero T
	serviceType := reflect.TypeOf((*T)(nil)).Elem()
	if serviceType.Kind() == reflect.Ptr {
		serviceType = serviceType.Elem()
	}

	service, err := c.Resolve(serviceType)
	if err != nil {
		return zero, err
	}

	if typedService, ok := service.(T); ok {
		return typedService, nil
	}

	return zero, fmt.Errorf("service is not of expected type %T", zero)
}

// GetAuthModule returns the auth module instance, or nil before InitializeAuth
func (c *Container) GetAuthModule() *auth.AuthModule {
	m, err := GetService[*auth.AuthModule](c)
	if err != nil {
		return nil
	}
	return m
}

// GetCMSModule returns the CMS module instance, or nil before InitializeCMS
func (c *Container) GetCMSModule() *cms.CMSModule {
	m, err := GetService[*cms.CMSModule](c)
	if err != nil {
		return nil
	}
	return m
}

// Health reports the storage backend in use. The status degrades while the
// remote circuit breaker is open; writes then land on local files only.
func (c *Container) Health() HealthStatus {
	status := HealthStatus{Status: "ok"}
	cmsModule := c.GetCMSModule()
	if cmsModule == nil {
		return status
	}
	status.Backend = cmsModule.Backend()
	status.Breaker = cmsModule.BreakerState()
	if status.Breaker == gobreaker.StateOpen.String() {
		status.Status = "degraded"
	}
	return status
}

// HealthCheck fails when the CMS module is missing or its remote is tripped.
func (c *Container) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.GetCMSModule() == nil {
		return fmt.Errorf("CMS module is not initialized")
	}
	if health := c.Health(); health.Status != "ok" {
		return fmt.Errorf("storage backend %s is %s", health.Backend, health.Status)
	}
	return nil
}

// Cleanup performs cleanup of registered services with proper shutdown order
func (c *Container) Cleanup(ctx context.Context) error {
	var errs []error

	// Cleanup modules in reverse order of initialization
	if cmsModule := c.GetCMSModule(); cmsModule != nil {
		if err := cmsModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop CMS module: %w", err))
		}
	}
	if authModule := c.GetAuthModule(); authModule != nil {
		if err := authModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop auth module: %w", err))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, service := range c.services {
		if cleaner, ok := service.(interface{ Cleanup(context.Context) error }); ok {
			if err := cleaner.Cleanup(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to cleanup service: %w", err))
			}
		}
	}

	c.services = make(map[reflect.Type]interface{})
	c.factories = make(map[reflect.Type]func() (interface{}, error))

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}

	return nil
}

// Close gracefully shuts down all services in the container with timeout
func (c *Container) Close() error {
	c.Logger.Info("Closing DI container resources...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		c.Logger.Warnf("Cleanup errors occurred: %v", err)
		return err
	}

	c.Logger.Info("DI container resources closed")
	return nil
}

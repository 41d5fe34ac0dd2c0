package cms

import (
	"context"

	httpadapter "studio-cms/internal/cms/adapter/http"
	"studio-cms/internal/cms/adapter/persistence"
	"studio-cms/internal/cms/config"
	"studio-cms/internal/cms/domain/repository"
	"studio-cms/internal/cms/usecase"
	"studio-cms/internal/shared/eventbus"
	"studio-cms/internal/shared/logger"
	"studio-cms/internal/shared/metrics"

	"github.com/gofiber/fiber/v2"
)

// CMSModule wires storage, usecases and HTTP handlers for the content API.
type CMSModule struct {
	Config     *config.StorageConfig
	Store      repository.Store
	Usecase    *usecase.CMSUsecase
	ChangeFeed usecase.ChangeFeedUsecase
	EventBus   eventbus.EventBusInterface
	Metrics    *metrics.Collector
	Handler    *httpadapter.CMSHandler
	WSHandler  *httpadapter.ChangeFeedHandler
	Logger     logger.Logger

	adapter *persistence.Adapter
}

// NewCMSModule resolves the storage backend from cfg and builds the module.
// bus and m may be nil.
func NewCMSModule(
	ctx context.Context,
	cfg *config.StorageConfig,
	bus eventbus.EventBusInterface,
	m *metrics.Collector,
	log logger.Logger,
) *CMSModule {
	if log == nil {
		log = logger.Nop()
	}
	log.Info("Initializing CMS module...")

	adapter := persistence.NewAdapter(ctx, cfg, log, m)
	module := NewCMSModuleWithStore(cfg, adapter, bus, m, log)
	module.adapter = adapter

	log.Infof("CMS storage backend: %s (production=%t)", adapter.Backend(), cfg.IsProduction())
	return module
}

// NewCMSModuleWithStore builds the module over an existing store.
func NewCMSModuleWithStore(
	cfg *config.StorageConfig,
	store repository.Store,
	bus eventbus.EventBusInterface,
	m *metrics.Collector,
	log logger.Logger,
) *CMSModule {
	if log == nil {
		log = logger.Nop()
	}
	if bus == nil {
		bus = eventbus.NewEventBus(log)
	}

	uc := usecase.NewCMSUsecase(store, log, usecase.WithEventBus(bus), usecase.WithMetrics(m))
	feed := usecase.NewChangeFeedUsecase(bus, log)
	uploads := httpadapter.NewUploadHandler(cfg.UploadDir, log)

	return &CMSModule{
		Config:     cfg,
		Store:      store,
		Usecase:    uc,
		ChangeFeed: feed,
		EventBus:   bus,
		Metrics:    m,
		Handler:    httpadapter.NewCMSHandler(uc, uc, uploads, log),
		WSHandler:  httpadapter.NewChangeFeedHandler(feed, log),
		Logger:     log,
	}
}

// RegisterRoutes mounts /api, /ws/changes and the /uploads file server.
// guard protects mutating /api routes; nil leaves them open.
func (m *CMSModule) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	m.Handler.RegisterRoutes(router.Group("/api"), guard)
	m.WSHandler.RegisterRoutes(router)
	router.Static(httpadapter.UploadURLPrefix, m.Config.UploadDir)
}

// Backend names the storage backend in use
func (m *CMSModule) Backend() string {
	return m.Store.Backend()
}

// BreakerState reports the remote circuit breaker state, or "" without a remote.
func (m *CMSModule) BreakerState() string {
	if m.adapter == nil {
		return ""
	}
	return m.adapter.BreakerState()
}

// Stop releases the remote storage client
func (m *CMSModule) Stop() error {
	if m.adapter == nil {
		return nil
	}
	return m.adapter.Close()
}

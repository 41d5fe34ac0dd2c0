package persistence

import (
	"context"
	"errors"
	"fmt"

	"studio-cms/internal/cms/adapter/persistence/mongodb"
	"studio-cms/internal/cms/config"
	"studio-cms/internal/cms/domain/repository"
	"studio-cms/internal/shared/logger"
)

// ErrNotConfigured is returned by a provider whose environment is not set.
// Resolution skips it without logging.
var ErrNotConfigured = errors.New("backend not configured")

// Provider attempts to open one remote backend.
type Provider struct {
	Name string
	Open func(ctx context.Context, cfg *config.StorageConfig) (repository.Backend, error)
}

// DefaultProviders is the resolution order: managed KV, then Redis, then MongoDB.
func DefaultProviders() []Provider {
	return []Provider{
		{Name: BackendKV, Open: openKV},
		{Name: BackendRedis, Open: openRedis},
		{Name: mongodb.BackendName, Open: openMongo},
	}
}

// ResolveRemote walks providers in order and returns the first backend that
// opens, or nil when every provider is unconfigured or failed.
func ResolveRemote(ctx context.Context, cfg *config.StorageConfig, providers []Provider, log logger.Logger) repository.Backend {
	if log == nil {
		log = logger.Nop()
	}
	for _, p := range providers {
		backend, err := p.Open(ctx, cfg)
		if errors.Is(err, ErrNotConfigured) {
			continue
		}
		if err != nil {
			log.WithFields(map[string]interface{}{"backend": p.Name}).
				Warnf("Storage backend unavailable, trying next: %v", err)
			continue
		}
		log.Infof("Using %s for data storage", p.Name)
		return backend
	}
	log.Info("No remote storage configured, using local files")
	return nil
}

func openKV(ctx context.Context, cfg *config.StorageConfig) (repository.Backend, error) {
	url, token := cfg.KVEndpoint()
	if url == "" {
		return nil, ErrNotConfigured
	}
	if token == "" {
		return nil, fmt.Errorf("kv endpoint %s has no token", url)
	}
	backend := NewKVBackend(url, token, cfg.KVTimeout)
	if err := backend.Ping(ctx); err != nil {
		return nil, err
	}
	return backend, nil
}

func openRedis(ctx context.Context, cfg *config.StorageConfig) (repository.Backend, error) {
	if cfg.RedisURL == "" {
		return nil, ErrNotConfigured
	}
	client, err := config.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	backend := NewRedisBackend(client)
	if err := backend.Ping(ctx); err != nil {
		_ = backend.Close()
		return nil, err
	}
	return backend, nil
}

func openMongo(ctx context.Context, cfg *config.StorageConfig) (repository.Backend, error) {
	if cfg.MongoDBURI == "" {
		return nil, ErrNotConfigured
	}
	return mongodb.Connect(ctx, cfg.MongoDBURI, cfg.MongoDatabase, cfg.MongoCollection)
}

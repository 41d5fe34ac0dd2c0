package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"studio-cms/internal/cms/config"
	"studio-cms/internal/cms/domain/model"
	"studio-cms/internal/cms/domain/repository"
	"studio-cms/internal/shared/logger"
	"studio-cms/internal/shared/metrics"
)

// Adapter is the storage adapter. It reads from the remote backend first and
// falls back to the local file store; writes go to the remote backend and,
// outside production or without a remote, to the local file too.
//
// The backend choice is made once, when the adapter is built.
type Adapter struct {
	remote     repository.Backend
	local      *FileBackend
	production bool
	logger     logger.Logger
	metrics    *metrics.Collector
}

var _ repository.Store = (*Adapter)(nil)

// NewAdapter resolves the remote backend from cfg using the default provider chain.
func NewAdapter(ctx context.Context, cfg *config.StorageConfig, log logger.Logger, m *metrics.Collector) *Adapter {
	return NewAdapterWithProviders(ctx, cfg, DefaultProviders(), log, m)
}

// NewAdapterWithProviders is NewAdapter with an explicit provider chain.
func NewAdapterWithProviders(ctx context.Context, cfg *config.StorageConfig, providers []Provider, log logger.Logger, m *metrics.Collector) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("storage")

	remote := ResolveRemote(ctx, cfg, providers, log)
	if remote != nil {
		breaker := DefaultBreakerConfig()
		if cfg.BreakerTimeout > 0 {
			breaker.Timeout = cfg.BreakerTimeout
		}
		if cfg.BreakerMinRequests > 0 {
			breaker.MinRequests = cfg.BreakerMinRequests
		}
		remote = WithBreaker(remote, breaker, log)
	}
	return NewAdapterWithBackends(remote, NewFileBackend(cfg.DataDir), cfg.IsProduction(), log, m)
}

// NewAdapterWithBackends builds an adapter from already-opened backends.
// remote may be nil.
func NewAdapterWithBackends(remote repository.Backend, local *FileBackend, production bool, log logger.Logger, m *metrics.Collector) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	return &Adapter{
		remote:     remote,
		local:      local,
		production: production,
		logger:     log,
		metrics:    m,
	}
}

// Backend names the primary backend
func (a *Adapter) Backend() string {
	if a.remote != nil {
		return a.remote.Name()
	}
	return BackendFile
}

// Remote returns the remote backend, or nil
func (a *Adapter) Remote() repository.Backend { return a.remote }

// Local returns the file store
func (a *Adapter) Local() *FileBackend { return a.local }

// BreakerState reports the remote circuit breaker state, or "" without one.
func (a *Adapter) BreakerState() string {
	if b, ok := a.remote.(*breakerBackend); ok {
		return b.State().String()
	}
	return ""
}

// Read returns the stored value of collection or nil. Errors are logged.
func (a *Adapter) Read(ctx context.Context, collection string) json.RawMessage {
	key := model.StorageKey(collection)
	log := a.logger.WithContext(ctx).WithFields(map[string]interface{}{"key": key})

	if a.remote != nil {
		started := time.Now()
		value, err := a.remote.Get(ctx, key)
		a.metrics.RecordStorage(a.remote.Name(), "get", started, err)
		switch {
		case err != nil:
			log.Errorf("%s read error: %v", a.remote.Name(), err)
		case !isEmpty(value):
			return value
		}
	}

	started := time.Now()
	value, err := a.local.Get(ctx, key)
	a.metrics.RecordStorage(BackendFile, "get", started, err)
	if err != nil {
		log.Errorf("File read error: %v", err)
		return nil
	}
	if value == nil {
		log.Debug("Nothing stored, returning empty")
		return nil
	}
	if a.remote != nil {
		a.metrics.RecordFallback()
	}
	return value
}

// Write stores value under collection and returns it unchanged. Errors are logged.
func (a *Adapter) Write(ctx context.Context, collection string, value json.RawMessage) json.RawMessage {
	key := model.StorageKey(collection)
	log := a.logger.WithContext(ctx).WithFields(map[string]interface{}{"key": key})

	if a.remote != nil {
		started := time.Now()
		err := a.remote.Set(ctx, key, value)
		a.metrics.RecordStorage(a.remote.Name(), "set", started, err)
		if err != nil {
			log.Errorf("%s write error: %v", a.remote.Name(), err)
		} else {
			log.Debugf("Saved to %s", a.remote.Name())
		}
	}

	if !a.production || a.remote == nil {
		started := time.Now()
		err := a.local.Set(ctx, key, value)
		a.metrics.RecordStorage(BackendFile, "set", started, err)
		if err != nil {
			log.Errorf("File write error: %v", err)
		} else {
			log.Debugf("Saved to file: %s", model.FileName(key))
		}
	}

	return value
}

// Close releases the remote client
func (a *Adapter) Close() error {
	if a.remote == nil {
		return nil
	}
	return a.remote.Close()
}

func isEmpty(value json.RawMessage) bool {
	trimmed := bytes.TrimSpace(value)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

package persistence

import (
	"context"
	"encoding/json"
	"time"

	"studio-cms/internal/cms/domain/repository"
	"studio-cms/internal/shared/logger"

	"github.com/sony/gobreaker"
)

// BreakerConfig holds configuration for the circuit breaker around a remote backend
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the breaker settings used for remote backends
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// breakerBackend stops calling a failing remote backend for a while so reads
// go straight to the local file instead of waiting on timeouts.
type breakerBackend struct {
	next repository.Backend
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker wraps backend in a circuit breaker. Misses are not failures.
func WithBreaker(backend repository.Backend, cfg BreakerConfig, log logger.Logger) repository.Backend {
	if log == nil {
		log = logger.Nop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        backend.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(map[string]interface{}{
				"backend": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Storage circuit breaker changed state")
		},
	})
	return &breakerBackend{next: backend, cb: cb}
}

func (b *breakerBackend) Name() string { return b.next.Name() }

func (b *breakerBackend) Get(ctx context.Context, key string) (json.RawMessage, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Get(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	value, _ := out.(json.RawMessage)
	return value, nil
}

func (b *breakerBackend) Set(ctx context.Context, key string, value json.RawMessage) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Set(ctx, key, value)
	})
	return err
}

func (b *breakerBackend) Close() error { return b.next.Close() }

// State exposes the breaker state for health reporting
func (b *breakerBackend) State() gobreaker.State { return b.cb.State() }

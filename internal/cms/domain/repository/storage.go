package repository

import (
	"context"
	"encoding/json"
)

// Backend is one concrete storage technology holding collection values by key.
// Get returns (nil, nil) when the key does not exist.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Close() error
}

// Store is the storage adapter contract the content usecases depend on.
// Read returns nil when nothing usable is stored. Neither call reports
// backend failures; they are logged and degraded inside the store.
type Store interface {
	Read(ctx context.Context, collection string) json.RawMessage
	Write(ctx context.Context, collection string, value json.RawMessage) json.RawMessage
	Backend() string
}

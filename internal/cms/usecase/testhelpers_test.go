package usecase

import (
	"context"
	"encoding/json"
	"runtime"
	"sync"
	"testing"
	"time"

	"studio-cms/internal/cms/domain/model"
	"studio-cms/internal/shared/logger"

	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store. Read yields the processor so concurrent
// read-modify-write sequences interleave the way they do against real I/O.
type memStore struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
	writes int
}

func newMemStore() *memStore {
	return &memStore{values: map[string]json.RawMessage{}}
}

func (m *memStore) Read(_ context.Context, collection string) json.RawMessage {
	m.mu.Lock()
	v := m.values[model.StorageKey(collection)]
	m.mu.Unlock()
	runtime.Gosched()
	if v == nil {
		return nil
	}
	return append(json.RawMessage(nil), v...)
}

func (m *memStore) Write(_ context.Context, collection string, value json.RawMessage) json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[model.StorageKey(collection)] = append(json.RawMessage(nil), value...)
	m.writes++
	return value
}

func (m *memStore) Backend() string { return "memory" }

func (m *memStore) put(t *testing.T, collection string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	m.Write(context.Background(), collection, data)
}

func (m *memStore) raw(collection string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.values[collection])
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// fixedClock returns a clock stuck at ms
func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func newTestUsecase(store *memStore, opts ...Option) *CMSUsecase {
	opts = append([]Option{WithClock(fixedClock(1700000000000))}, opts...)
	return NewCMSUsecase(store, logger.Nop(), opts...)
}

func decodeSequence(t *testing.T, raw string) []model.Document {
	t.Helper()
	docs, err := model.DecodeDocuments(json.RawMessage(raw))
	require.NoError(t, err)
	return docs
}

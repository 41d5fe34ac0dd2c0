package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"studio-cms/internal/cms/config"
	"studio-cms/internal/cms/domain/model"
	"studio-cms/internal/cms/domain/repository"
	"studio-cms/internal/shared/logger"
	"studio-cms/internal/shared/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileOnlyAdapter(t *testing.T) (*Adapter, string) {
	t.Helper()
	dir := t.TempDir()
	return NewAdapterWithBackends(nil, NewFileBackend(dir), false, logger.Nop(), nil), dir
}

func TestAdapter_ReadMissingIsNil(t *testing.T) {
	a, _ := fileOnlyAdapter(t)
	for _, c := range model.Collections {
		assert.Nil(t, a.Read(context.Background(), c), c)
	}
	assert.Equal(t, BackendFile, a.Backend())
}

func TestAdapter_WriteReadRoundTrip(t *testing.T) {
	a, dir := fileOnlyAdapter(t)
	ctx := context.Background()
	v := json.RawMessage(`{"about":{"title":"About","content":"Hello"}}`)

	out := a.Write(ctx, "pages", v)
	assert.Equal(t, v, out)
	assert.JSONEq(t, string(v), string(a.Read(ctx, "pages")))
	assert.JSONEq(t, string(v), string(a.Read(ctx, "pages.json")))
	assert.FileExists(t, filepath.Join(dir, "pages.json"))
}

func TestAdapter_MalformedFileReadsNil(t *testing.T) {
	a, dir := fileOnlyAdapter(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "projects.json"), []byte("[{"), 0o644))
	assert.Nil(t, a.Read(context.Background(), "projects"))
}

func TestAdapter_RemoteHitWins(t *testing.T) {
	dir := t.TempDir()
	remote := newFakeBackend("kv")
	remote.values["news"] = json.RawMessage(`[{"id":1}]`)
	local := NewFileBackend(dir)
	require.NoError(t, local.Set(context.Background(), "news", json.RawMessage(`[{"id":2}]`)))

	a := NewAdapterWithBackends(remote, local, false, nil, nil)
	assert.JSONEq(t, `[{"id":1}]`, string(a.Read(context.Background(), "news")))
	assert.Equal(t, "kv", a.Backend())
}

func TestAdapter_RemoteEmptyArrayIsAHit(t *testing.T) {
	dir := t.TempDir()
	remote := newFakeBackend("redis")
	remote.values["news"] = json.RawMessage(`[]`)
	local := NewFileBackend(dir)
	require.NoError(t, local.Set(context.Background(), "news", json.RawMessage(`[{"id":2}]`)))

	a := NewAdapterWithBackends(remote, local, false, nil, nil)
	assert.JSONEq(t, `[]`, string(a.Read(context.Background(), "news")))
}

func TestAdapter_RemoteMissFallsBackToFile(t *testing.T) {
	dir := t.TempDir()
	remote := newFakeBackend("redis")
	local := NewFileBackend(dir)
	require.NoError(t, local.Set(context.Background(), "settings", json.RawMessage(`{"email":"a@b.com"}`)))

	m := metrics.NewCollector("cms_test")
	a := NewAdapterWithBackends(remote, local, true, nil, m)
	assert.JSONEq(t, `{"email":"a@b.com"}`, string(a.Read(context.Background(), "settings")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageFallbacks))
}

func TestAdapter_RemoteErrorFallsBackToFile(t *testing.T) {
	dir := t.TempDir()
	remote := newFakeBackend("kv")
	remote.getErr = errors.New("connection reset")
	local := NewFileBackend(dir)
	require.NoError(t, local.Set(context.Background(), "projects", json.RawMessage(`[{"id":3}]`)))

	a := NewAdapterWithBackends(remote, local, false, nil, nil)
	assert.JSONEq(t, `[{"id":3}]`, string(a.Read(context.Background(), "projects")))
}

func TestAdapter_DevelopmentDualWrite(t *testing.T) {
	dir := t.TempDir()
	remote := newFakeBackend("kv")
	a := NewAdapterWithBackends(remote, NewFileBackend(dir), false, nil, nil)

	a.Write(context.Background(), "projects.json", json.RawMessage(`[]`))
	assert.Equal(t, 1, remote.sets)
	assert.Contains(t, remote.values, "projects")
	assert.FileExists(t, filepath.Join(dir, "projects.json"))
}

func TestAdapter_ProductionSkipsFileWithRemote(t *testing.T) {
	dir := t.TempDir()
	remote := newFakeBackend("kv")
	a := NewAdapterWithBackends(remote, NewFileBackend(dir), true, nil, nil)

	a.Write(context.Background(), "projects", json.RawMessage(`[]`))
	assert.Equal(t, 1, remote.sets)
	assert.NoFileExists(t, filepath.Join(dir, "projects.json"))
}

func TestAdapter_ProductionWithoutRemoteWritesFile(t *testing.T) {
	dir := t.TempDir()
	a := NewAdapterWithBackends(nil, NewFileBackend(dir), true, nil, nil)

	a.Write(context.Background(), "news", json.RawMessage(`[]`))
	assert.FileExists(t, filepath.Join(dir, "news.json"))
}

func TestAdapter_RemoteWriteFailureStillWritesFile(t *testing.T) {
	dir := t.TempDir()
	remote := newFakeBackend("redis")
	remote.setErr = errors.New("READONLY")
	a := NewAdapterWithBackends(remote, NewFileBackend(dir), false, nil, nil)

	out := a.Write(context.Background(), "news", json.RawMessage(`[{"id":1}]`))
	assert.JSONEq(t, `[{"id":1}]`, string(out))
	assert.FileExists(t, filepath.Join(dir, "news.json"))
}

func TestAdapter_Close(t *testing.T) {
	remote := newFakeBackend("redis")
	a := NewAdapterWithBackends(remote, NewFileBackend(t.TempDir()), false, nil, nil)
	require.NoError(t, a.Close())
	assert.True(t, remote.closed)

	fileOnly, _ := fileOnlyAdapter(t)
	assert.NoError(t, fileOnly.Close())
}

func TestNewAdapterWithProviders_FirstSuccessWins(t *testing.T) {
	cfg := config.DefaultStorageConfig(t.TempDir())
	kv := newFakeBackend("kv")
	redisFake := newFakeBackend("redis")

	var tried []string
	providers := []Provider{
		{Name: "kv", Open: func(context.Context, *config.StorageConfig) (repository.Backend, error) {
			tried = append(tried, "kv")
			return nil, errors.New("boom")
		}},
		{Name: "redis", Open: func(context.Context, *config.StorageConfig) (repository.Backend, error) {
			tried = append(tried, "redis")
			return redisFake, nil
		}},
		{Name: "mongodb", Open: func(context.Context, *config.StorageConfig) (repository.Backend, error) {
			tried = append(tried, "mongodb")
			return kv, nil
		}},
	}

	a := NewAdapterWithProviders(context.Background(), cfg, providers, nil, nil)
	assert.Equal(t, []string{"kv", "redis"}, tried)
	assert.Equal(t, "redis", a.Backend())
	assert.Equal(t, "closed", a.BreakerState())
}

func TestNewAdapterWithProviders_NoneConfigured(t *testing.T) {
	cfg := config.DefaultStorageConfig(t.TempDir())
	notConfigured := func(context.Context, *config.StorageConfig) (repository.Backend, error) {
		return nil, ErrNotConfigured
	}
	providers := []Provider{{Name: "kv", Open: notConfigured}, {Name: "redis", Open: notConfigured}}

	a := NewAdapterWithProviders(context.Background(), cfg, providers, nil, nil)
	assert.Equal(t, BackendFile, a.Backend())
	assert.Nil(t, a.Remote())
	assert.Equal(t, "", a.BreakerState())
}

func TestDefaultProviders_KVFromEnvironment(t *testing.T) {
	fake, srv := newFakeUpstash(t, "tok")
	cfg := config.DefaultStorageConfig(t.TempDir())
	cfg.UpstashRestURL = srv.URL
	cfg.UpstashRestToken = "tok"
	cfg.KVTimeout = time.Second

	a := NewAdapter(context.Background(), cfg, nil, nil)
	defer a.Close()
	require.Equal(t, BackendKV, a.Backend())

	a.Write(context.Background(), "projects", json.RawMessage(`[{"id":9}]`))
	_, ok := fake.raw("projects")
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":9}]`, string(a.Read(context.Background(), "projects")))
}

func TestDefaultProviders_UnreachableFallsThroughToFile(t *testing.T) {
	cfg := config.DefaultStorageConfig(t.TempDir())
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	a := NewAdapter(context.Background(), cfg, nil, nil)
	assert.Equal(t, BackendFile, a.Backend())
}

func TestDefaultProviders_KVWithoutToken(t *testing.T) {
	cfg := config.DefaultStorageConfig(t.TempDir())
	cfg.KVRestURL = "https://kv.example.com"

	_, err := openKV(context.Background(), cfg)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotConfigured))
}

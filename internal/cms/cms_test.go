package cms

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"studio-cms/internal/cms/config"
	"studio-cms/internal/shared/logger"
	"studio-cms/internal/shared/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModule(t *testing.T) (*CMSModule, *config.StorageConfig) {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultStorageConfig(filepath.Join(root, "data"))
	cfg.UploadDir = filepath.Join(root, "uploads")
	module := NewCMSModule(context.Background(), cfg, nil, metrics.NewCollector("cms_test"), logger.Nop())
	t.Cleanup(func() { _ = module.Stop() })
	return module, cfg
}

func TestCMSModule_FileBackendRoutes(t *testing.T) {
	module, cfg := newTestModule(t)
	assert.Equal(t, "file", module.Backend())
	assert.Equal(t, "", module.BreakerState())

	app := fiber.New()
	module.RegisterRoutes(app, nil)

	req := httptest.NewRequest("POST", "/api/news", bytes.NewBufferString(`{"title":"Launch"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data, err := os.ReadFile(filepath.Join(cfg.DataDir, "news.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "Launch"`)

	resp, err = app.Test(httptest.NewRequest("GET", "/ws/changes", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestCMSModule_ServesUploads(t *testing.T) {
	module, cfg := newTestModule(t)
	require.NoError(t, os.MkdirAll(cfg.UploadDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.UploadDir, "1-a.png"), []byte("png"), 0o644))

	app := fiber.New()
	module.RegisterRoutes(app, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/uploads/1-a.png", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "png", string(body))
}

func TestCMSModule_GuardBlocksWrites(t *testing.T) {
	module, _ := newTestModule(t)
	app := fiber.New()
	module.RegisterRoutes(app, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusUnauthorized)
	})

	resp, err := app.Test(httptest.NewRequest("PUT", "/api/settings", bytes.NewBufferString(`{}`)))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/settings", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

package http

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"studio-cms/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UploadField is the multipart field carrying the image
const UploadField = "image"

// UploadURLPrefix is where uploaded files are served from
const UploadURLPrefix = "/uploads"

var allowedImageTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// UploadHandler stores images on local disk
type UploadHandler struct {
	dir string
	now func() time.Time
	log logger.Logger
}

// NewUploadHandler creates an UploadHandler writing into dir
func NewUploadHandler(dir string, log logger.Logger) *UploadHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &UploadHandler{dir: dir, now: time.Now, log: log.WithComponent("upload")}
}

// Dir is the directory files are written to
func (h *UploadHandler) Dir() string { return h.dir }

// Upload handles POST /upload and returns {"url": "/uploads/<name>"}
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	ctx := requestContext(c)
	file, err := c.FormFile(UploadField)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(file.Header.Get(fiber.HeaderContentType), ";")[0]))
	if !allowedImageTypes[contentType] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid file type. Only JPEG, PNG, GIF, WebP, and SVG are allowed.",
		})
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		h.log.WithContext(ctx).Errorf("Failed to create upload dir %s: %v", h.dir, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	name := h.fileName(file.Filename)
	if err := c.SaveFile(file, filepath.Join(h.dir, name)); err != nil {
		h.log.WithContext(ctx).Errorf("Failed to save upload %s: %v", name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	h.log.WithContext(ctx).Infof("Stored upload %s (%d bytes)", name, file.Size)
	return c.JSON(fiber.Map{"url": path.Join(UploadURLPrefix, name)})
}

// fileName prefixes the client name with the current unix milliseconds.
// Directory parts are dropped so the file always lands in dir.
func (h *UploadHandler) fileName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" || base == ".." || strings.TrimSpace(base) == "" {
		base = uuid.NewString()
	}
	return fmt.Sprintf("%d-%s", h.now().UnixMilli(), base)
}

package http

import (
	"context"
	stderrors "errors"

	"studio-cms/internal/cms/domain/model"
	"studio-cms/internal/cms/usecase"
	"studio-cms/internal/shared/contextkeys"
	"studio-cms/internal/shared/errors"
	"studio-cms/internal/shared/logger"
	"studio-cms/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
)

// CMSHandler serves the content REST API under /api
type CMSHandler struct {
	ContentUC  usecase.ContentUsecase
	TaxonomyUC usecase.TaxonomyUsecase
	Uploads    *UploadHandler
	Log        logger.Logger
}

// NewCMSHandler creates a new CMSHandler
func NewCMSHandler(
	contentUC usecase.ContentUsecase,
	taxonomyUC usecase.TaxonomyUsecase,
	uploads *UploadHandler,
	log logger.Logger,
) *CMSHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CMSHandler{
		ContentUC:  contentUC,
		TaxonomyUC: taxonomyUC,
		Uploads:    uploads,
		Log:        log.WithComponent("cms-http"),
	}
}

// RegisterRoutes registers the content routes. guard, when set, runs before
// every mutating route.
func (h *CMSHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	h.registerRecordRoutes(router, "/projects", model.CollectionProjects, guard)
	h.registerRecordRoutes(router, "/news", model.CollectionNews, guard)
	h.registerSettingsRoutes(router, guard)
	h.registerPageRoutes(router, guard)
	if h.TaxonomyUC != nil {
		h.registerTaxonomyRoutes(router, guard)
	}
	if h.Uploads != nil {
		router.Post("/upload", guarded(guard, h.Uploads.Upload)...)
	}
}

func (h *CMSHandler) registerRecordRoutes(router fiber.Router, path, collection string, guard fiber.Handler) {
	router.Get(path, h.ListRecords(collection))
	router.Post(path, guarded(guard, h.CreateRecord(collection))...)
	router.Put(path+"/:id", guarded(guard, h.UpdateRecord(collection))...)
	router.Delete(path+"/:id", guarded(guard, h.DeleteRecord(collection))...)
}

func (h *CMSHandler) registerSettingsRoutes(router fiber.Router, guard fiber.Handler) {
	router.Get("/settings", h.GetSettings)
	router.Put("/settings", guarded(guard, h.PutSettings)...)
}

func (h *CMSHandler) registerPageRoutes(router fiber.Router, guard fiber.Handler) {
	router.Get("/pages", h.ListPages)
	router.Get("/pages/:pageName", h.GetPage)
	router.Put("/pages/:pageName", guarded(guard, h.PutPage)...)
}

func (h *CMSHandler) registerTaxonomyRoutes(router fiber.Router, guard fiber.Handler) {
	router.Get("/taxonomy", h.ListTags)
	router.Get("/taxonomy/report", h.TaxonomyReport)
	router.Post("/taxonomy", guarded(guard, h.CreateTag)...)
	router.Post("/taxonomy/rebuild", guarded(guard, h.RebuildTaxonomy)...)
	router.Put("/taxonomy/:id", guarded(guard, h.UpdateTag)...)
	router.Delete("/taxonomy/:id", guarded(guard, h.DeleteTag)...)
	router.Post("/taxonomy/:id/merge", guarded(guard, h.MergeTags)...)
}

func guarded(guard fiber.Handler, handler fiber.Handler) []fiber.Handler {
	if guard == nil {
		return []fiber.Handler{handler}
	}
	return []fiber.Handler{guard, handler}
}

// requestContext carries the request id into the usecase context
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if id, ok := c.Locals(string(contextkeys.RequestIDKey)).(string); ok && id != "" {
		ctx = utils.WithRequestID(ctx, id)
	}
	return ctx
}

// respondError writes {"error": message} with the status carried by err
func (h *CMSHandler) respondError(c *fiber.Ctx, ctx context.Context, err error, action string) error {
	status := errors.HTTPStatus(err)
	log := h.Log.WithContext(ctx)
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && len(appErr.Details) > 0 {
		log = log.WithFields(appErr.Details)
	}
	if status >= fiber.StatusInternalServerError {
		log.Errorf("Failed to %s: %v", action, err)
	} else {
		log.Debugf("Rejected %s: %v", action, err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
	})
}

package http

import (
	"context"

	"studio-cms/internal/cms/domain/model"
	"studio-cms/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
)

// ListRecords returns the whole sequence of a collection
func (h *CMSHandler) ListRecords(collection string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := collectionContext(c, collection)
		docs, err := h.ContentUC.List(ctx, collection)
		if err != nil {
			return h.respondError(c, ctx, err, "list "+collection)
		}
		return c.JSON(docs)
	}
}

// CreateRecord appends the body as a new record and returns it with its id
func (h *CMSHandler) CreateRecord(collection string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := collectionContext(c, collection)
		fields, err := model.DecodeBody(c.Body())
		if err != nil {
			return invalidBody(c)
		}

		record, err := h.ContentUC.Create(ctx, collection, fields)
		if err != nil {
			return h.respondError(c, ctx, err, "create "+collection)
		}
		h.Log.WithContext(ctx).Infof("Created record in %s", collection)
		return c.JSON(record)
	}
}

// UpdateRecord merges the body into the record named by :id
func (h *CMSHandler) UpdateRecord(collection string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := collectionContext(c, collection)
		fields, err := model.DecodeBody(c.Body())
		if err != nil {
			return invalidBody(c)
		}

		record, err := h.ContentUC.Update(ctx, collection, c.Params("id"), fields)
		if err != nil {
			return h.respondError(c, ctx, err, "update "+collection)
		}
		return c.JSON(record)
	}
}

// DeleteRecord removes the record named by :id; unknown ids still succeed
func (h *CMSHandler) DeleteRecord(collection string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := collectionContext(c, collection)
		if err := h.ContentUC.Delete(ctx, collection, c.Params("id")); err != nil {
			return h.respondError(c, ctx, err, "delete "+collection)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

func (h *CMSHandler) GetSettings(c *fiber.Ctx) error {
	ctx := collectionContext(c, model.CollectionSettings)
	settings, err := h.ContentUC.GetSettings(ctx)
	if err != nil {
		return h.respondError(c, ctx, err, "read settings")
	}
	return c.JSON(settings)
}

func (h *CMSHandler) PutSettings(c *fiber.Ctx) error {
	ctx := collectionContext(c, model.CollectionSettings)
	settings, err := model.DecodeBody(c.Body())
	if err != nil {
		return invalidBody(c)
	}

	saved, err := h.ContentUC.PutSettings(ctx, settings)
	if err != nil {
		return h.respondError(c, ctx, err, "save settings")
	}
	return c.JSON(saved)
}

func (h *CMSHandler) ListPages(c *fiber.Ctx) error {
	ctx := collectionContext(c, model.CollectionPages)
	pages, err := h.ContentUC.ListPages(ctx)
	if err != nil {
		return h.respondError(c, ctx, err, "list pages")
	}
	return c.JSON(pages)
}

// GetPage returns the named page or {} when it does not exist
func (h *CMSHandler) GetPage(c *fiber.Ctx) error {
	ctx := collectionContext(c, model.CollectionPages)
	page, err := h.ContentUC.GetPage(ctx, c.Params("pageName"))
	if err != nil {
		return h.respondError(c, ctx, err, "read page")
	}
	return c.JSON(page)
}

func (h *CMSHandler) PutPage(c *fiber.Ctx) error {
	ctx := collectionContext(c, model.CollectionPages)
	page, err := model.DecodeBody(c.Body())
	if err != nil {
		return invalidBody(c)
	}

	saved, err := h.ContentUC.PutPage(ctx, c.Params("pageName"), page)
	if err != nil {
		return h.respondError(c, ctx, err, "save page")
	}
	return c.JSON(saved)
}

func collectionContext(c *fiber.Ctx, collection string) context.Context {
	return utils.WithCollection(requestContext(c), collection)
}

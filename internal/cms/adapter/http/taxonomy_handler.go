package http

import (
	"encoding/json"

	"studio-cms/internal/cms/usecase"

	"github.com/gofiber/fiber/v2"
)

// MergeTagsRequest is the body of POST /taxonomy/:id/merge
type MergeTagsRequest struct {
	TargetID string `json:"targetId"`
}

func (h *CMSHandler) ListTags(c *fiber.Ctx) error {
	ctx := requestContext(c)
	tags, err := h.TaxonomyUC.ListTags(ctx)
	if err != nil {
		return h.respondError(c, ctx, err, "list tags")
	}
	return c.JSON(tags)
}

func (h *CMSHandler) CreateTag(c *fiber.Ctx) error {
	ctx := requestContext(c)
	var req usecase.CreateTagInput
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return invalidBody(c)
	}

	tag, err := h.TaxonomyUC.CreateTag(ctx, req)
	if err != nil {
		return h.respondError(c, ctx, err, "create tag")
	}
	h.Log.WithContext(ctx).Infof("Created tag %s (%s)", tag.ID, tag.Name)
	return c.Status(fiber.StatusCreated).JSON(tag)
}

func (h *CMSHandler) UpdateTag(c *fiber.Ctx) error {
	ctx := requestContext(c)
	var req usecase.UpdateTagInput
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return invalidBody(c)
	}

	tag, err := h.TaxonomyUC.UpdateTag(ctx, c.Params("id"), req)
	if err != nil {
		return h.respondError(c, ctx, err, "update tag")
	}
	return c.JSON(tag)
}

// DeleteTag removes the tag and its references from every project
func (h *CMSHandler) DeleteTag(c *fiber.Ctx) error {
	ctx := requestContext(c)
	if err := h.TaxonomyUC.DeleteTag(ctx, c.Params("id")); err != nil {
		return h.respondError(c, ctx, err, "delete tag")
	}
	return c.JSON(fiber.Map{"success": true})
}

// MergeTags folds the :id tag into the target tag
func (h *CMSHandler) MergeTags(c *fiber.Ctx) error {
	ctx := requestContext(c)
	var req MergeTagsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return invalidBody(c)
	}

	target, err := h.TaxonomyUC.MergeTags(ctx, c.Params("id"), req.TargetID)
	if err != nil {
		return h.respondError(c, ctx, err, "merge tags")
	}
	return c.JSON(target)
}

func (h *CMSHandler) RebuildTaxonomy(c *fiber.Ctx) error {
	ctx := requestContext(c)
	result, err := h.TaxonomyUC.RebuildTaxonomy(ctx)
	if err != nil {
		return h.respondError(c, ctx, err, "rebuild taxonomy")
	}
	h.Log.WithContext(ctx).Infof("Rebuilt taxonomy: %d tags, %d new", len(result.Tags), result.Created)
	return c.JSON(result)
}

// TaxonomyReport lists tags whose names join several names with commas
func (h *CMSHandler) TaxonomyReport(c *fiber.Ctx) error {
	ctx := requestContext(c)
	report, err := h.TaxonomyUC.TaxonomyReport(ctx)
	if err != nil {
		return h.respondError(c, ctx, err, "build taxonomy report")
	}
	return c.JSON(fiber.Map{
		"count":       len(report),
		"suggestions": report,
	})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "storekeep/internal/log"
	"storekeep/internal/services"
	"storekeep/internal/storage"
)

type CategoryHandler struct {
	Catalog  *services.CatalogService
	Cascade  *services.CascadeService
	Files    storage.Storage
	MaxImage int
}

type categoryRequest struct {
	StoreID *string `json:"store_id" form:"store_id"`
	Name    *string `json:"category_name" form:"category_name"`
	Status  *bool   `json:"status" form:"status"`
}

// POST /api/v1/categories
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	img, done, err := formImage(c, h.MaxImage)
	if err != nil {
		return err
	}
	defer done()

	cat, err := h.Catalog.CreateCategory(c.UserContext(), subject(c), services.NewCategory{
		StoreID: deref(req.StoreID),
		Name:    deref(req.Name),
		Image:   img,
	})
	if err != nil {
		return err
	}
	applog.Audit(c, "categories.create", map[string]any{"category_id": cat.ID, "store_id": cat.StoreID})
	return c.Status(fiber.StatusCreated).JSON(categoryOut(h.Files, *cat))
}

// GET /api/v1/categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext(), subject(c))
	if err != nil {
		return err
	}
	return c.JSON(categoriesOut(h.Files, cats))
}

// GET /api/v1/categories/:id
func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.Catalog.GetCategory(c.UserContext(), subject(c), id)
	if err != nil {
		return err
	}
	return c.JSON(categoryOut(h.Files, *cat))
}

// PUT /api/v1/categories/:id
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	img, done, err := formImage(c, h.MaxImage)
	if err != nil {
		return err
	}
	defer done()

	cat, err := h.Catalog.UpdateCategory(c.UserContext(), subject(c), id, services.CategoryPatch{
		Name:   req.Name,
		Active: req.Status,
		Image:  img,
	})
	if err != nil {
		return err
	}
	applog.Audit(c, "categories.update", map[string]any{"category_id": id})
	return c.JSON(categoryOut(h.Files, *cat))
}

// DELETE /api/v1/categories/:id
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rep, err := h.Cascade.DeleteCategory(c.UserContext(), subject(c), id)
	if err != nil {
		return err
	}
	applog.Audit(c, "categories.delete", map[string]any{"category_id": id, "report": rep})
	return c.JSON(reportOut(rep))
}

// GET /api/v1/categories/:id/products
func (h *CategoryHandler) Products(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	prods, err := h.Catalog.ListProductsByCategory(c.UserContext(), subject(c), id)
	if err != nil {
		return err
	}
	return c.JSON(productsOut(h.Files, prods))
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "storekeep/internal/log"
	"storekeep/internal/services"
	"storekeep/internal/storage"
)

type StoreHandler struct {
	Catalog  *services.CatalogService
	Cascade  *services.CascadeService
	Sales    *services.SaleService
	Files    storage.Storage
	MaxImage int
}

type storeRequest struct {
	Name     *string `json:"store_name" form:"store_name"`
	Location *string `json:"location" form:"location"`
	Status   *bool   `json:"status" form:"status"`
}

// POST /api/v1/stores
func (h *StoreHandler) Create(c *fiber.Ctx) error {
	var req storeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	img, done, err := formImage(c, h.MaxImage)
	if err != nil {
		return err
	}
	defer done()

	st, err := h.Catalog.CreateStore(c.UserContext(), subject(c), services.NewStore{
		Name:     deref(req.Name),
		Location: deref(req.Location),
		Image:    img,
	})
	if err != nil {
		return err
	}
	applog.Audit(c, "stores.create", map[string]any{"store_id": st.ID})
	return c.Status(fiber.StatusCreated).JSON(storeOut(h.Files, *st))
}

// GET /api/v1/stores
func (h *StoreHandler) List(c *fiber.Ctx) error {
	stores, err := h.Catalog.ListStores(c.UserContext(), subject(c))
	if err != nil {
		return err
	}
	return c.JSON(storesOut(h.Files, stores))
}

// GET /api/v1/stores/:id
func (h *StoreHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	st, err := h.Catalog.GetStore(c.UserContext(), subject(c), id)
	if err != nil {
		return err
	}
	return c.JSON(storeOut(h.Files, *st))
}

// PUT /api/v1/stores/:id
func (h *StoreHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req storeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	img, done, err := formImage(c, h.MaxImage)
	if err != nil {
		return err
	}
	defer done()

	st, err := h.Catalog.UpdateStore(c.UserContext(), subject(c), id, services.StorePatch{
		Name:     req.Name,
		Location: req.Location,
		Active:   req.Status,
		Image:    img,
	})
	if err != nil {
		return err
	}
	applog.Audit(c, "stores.update", map[string]any{"store_id": id})
	return c.JSON(storeOut(h.Files, *st))
}

// DELETE /api/v1/stores/:id
func (h *StoreHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rep, err := h.Cascade.DeleteStore(c.UserContext(), subject(c), id)
	if err != nil {
		return err
	}
	applog.Audit(c, "stores.delete", map[string]any{"store_id": id, "report": rep})
	return c.JSON(reportOut(rep))
}

// GET /api/v1/stores/:id/categories
func (h *StoreHandler) Categories(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cats, err := h.Catalog.ListCategoriesByStore(c.UserContext(), subject(c), id)
	if err != nil {
		return err
	}
	return c.JSON(categoriesOut(h.Files, cats))
}

// GET /api/v1/stores/:id/sales
func (h *StoreHandler) SalesList(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	sales, err := h.Sales.ListSalesByStore(c.UserContext(), subject(c), id)
	if err != nil {
		return err
	}
	return c.JSON(salesOut(sales))
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

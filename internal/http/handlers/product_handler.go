package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"storekeep/internal/domain"
	applog "storekeep/internal/log"
	"storekeep/internal/services"
	"storekeep/internal/storage"
	"storekeep/internal/validate"
)

type ProductHandler struct {
	Catalog  *services.CatalogService
	Cascade  *services.CascadeService
	Sales    *services.SaleService
	Files    storage.Storage
	MaxImage int
}

type productRequest struct {
	CategoryID *string          `json:"category_id" form:"category_id"`
	Name       *string          `json:"product_name" form:"product_name"`
	StockLevel *int             `json:"stock_level" form:"stock_level"`
	Price      *decimal.Decimal `json:"price" form:"-"`
	Status     *bool            `json:"status" form:"status"`
}

// POST /api/v1/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req productRequest
	if err := parseProduct(c, &req); err != nil {
		return err
	}
	if req.Price == nil {
		return invalidField("price")
	}
	img, done, err := formImage(c, h.MaxImage)
	if err != nil {
		return err
	}
	defer done()

	p, err := h.Catalog.CreateProduct(c.UserContext(), subject(c), services.NewProduct{
		CategoryID: deref(req.CategoryID),
		Name:       deref(req.Name),
		StockLevel: deref(req.StockLevel),
		Price:      *req.Price,
		Image:      img,
	})
	if err != nil {
		return err
	}
	applog.Audit(c, "products.create", map[string]any{"product_id": p.ID, "category_id": p.CategoryID})
	return c.Status(fiber.StatusCreated).JSON(productOut(h.Files, *p))
}

// GET /api/v1/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	prods, err := h.Catalog.ListProducts(c.UserContext(), subject(c))
	if err != nil {
		return err
	}
	return c.JSON(productsOut(h.Files, prods))
}

// GET /api/v1/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), subject(c), id)
	if err != nil {
		return err
	}
	return c.JSON(productOut(h.Files, *p))
}

// PUT /api/v1/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req productRequest
	if err := parseProduct(c, &req); err != nil {
		return err
	}
	img, done, err := formImage(c, h.MaxImage)
	if err != nil {
		return err
	}
	defer done()

	p, err := h.Catalog.UpdateProduct(c.UserContext(), subject(c), id, services.ProductPatch{
		CategoryID: req.CategoryID,
		Name:       req.Name,
		StockLevel: req.StockLevel,
		Price:      req.Price,
		Active:     req.Status,
		Image:      img,
	})
	if err != nil {
		return err
	}
	applog.Audit(c, "products.update", map[string]any{"product_id": id})
	return c.JSON(productOut(h.Files, *p))
}

// DELETE /api/v1/products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rep, err := h.Cascade.DeleteProduct(c.UserContext(), subject(c), id)
	if err != nil {
		return err
	}
	applog.Audit(c, "products.delete", map[string]any{"product_id": id, "report": rep})
	return c.JSON(reportOut(rep))
}

// GET /api/v1/products/:id/sales
func (h *ProductHandler) SalesList(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	sales, err := h.Sales.ListSalesByProduct(c.UserContext(), subject(c), id)
	if err != nil {
		return err
	}
	return c.JSON(salesOut(sales))
}

// parseProduct decodes a JSON or form body. Form prices arrive as text and go
// through validate.Price.
func parseProduct(c *fiber.Ctx, req *productRequest) error {
	if err := parseBody(c, req); err != nil {
		return err
	}
	if req.Price != nil {
		return nil
	}
	if raw := c.FormValue("price"); raw != "" {
		d, ok := validate.Price(raw)
		if !ok {
			return domain.Invalid("price must be a non-negative amount with at most two decimals")
		}
		req.Price = &d
	}
	return nil
}

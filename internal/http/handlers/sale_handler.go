package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storekeep/internal/domain"
	applog "storekeep/internal/log"
	"storekeep/internal/services"
)

type SaleHandler struct {
	Sales *services.SaleService
}

type createSalesRequest struct {
	Sales []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"sales"`
}

// POST /api/v1/sales
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var req createSalesRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	items := make([]domain.SaleItem, 0, len(req.Sales))
	for _, it := range req.Sales {
		items = append(items, domain.SaleItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	batch, err := h.Sales.CreateSales(c.UserContext(), subject(c), items)
	if err != nil {
		applog.Info(c, "sales.create.fail", map[string]any{"items": len(items), "reason": err.Error()})
		return err
	}
	applog.Audit(c, "sales.create", map[string]any{"count": len(batch.Sales), "grand_total": batch.GrandTotal.StringFixed(2)})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"sales":       salesOut(batch.Sales),
		"grand_total": batch.GrandTotal.StringFixed(2),
	})
}

// GET /api/v1/sales
func (h *SaleHandler) List(c *fiber.Ctx) error {
	sales, err := h.Sales.ListSales(c.UserContext(), subject(c))
	if err != nil {
		return err
	}
	return c.JSON(salesOut(sales))
}

// GET /api/v1/sales/:id
func (h *SaleHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s, err := h.Sales.GetSale(c.UserContext(), subject(c), id)
	if err != nil {
		return err
	}
	return c.JSON(saleOut(*s))
}

type updateSaleRequest struct {
	ProductID *string `json:"product_id"`
	Quantity  *int    `json:"quantity"`
	Status    *string `json:"status"`
}

// PUT /api/v1/sales/:id
func (h *SaleHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateSaleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	patch := domain.SalePatch{ProductID: req.ProductID, Quantity: req.Quantity}
	if req.Status != nil {
		st := domain.SaleStatus(*req.Status)
		patch.Status = &st
	}

	s, err := h.Sales.UpdateSale(c.UserContext(), subject(c), id, patch)
	if err != nil {
		return err
	}
	applog.Audit(c, "sales.update", map[string]any{"sale_id": id, "total": s.TotalPrice.StringFixed(2)})
	return c.JSON(saleOut(*s))
}

// DELETE /api/v1/sales/:id
func (h *SaleHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Sales.DeleteSale(c.UserContext(), subject(c), id); err != nil {
		return err
	}
	applog.Audit(c, "sales.delete", map[string]any{"sale_id": id})
	return c.JSON(fiber.Map{"message": "sale deleted"})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storekeep/internal/services"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// GET /api/v1/products/:id/availability
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), subject(c), id)
	if err != nil {
		return err
	}
	return c.JSON(avail)
}

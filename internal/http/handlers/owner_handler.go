package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "storekeep/internal/log"
	"storekeep/internal/services"
	"storekeep/internal/storage"
)

// OwnerHandler serves the authenticated owner's own account.
type OwnerHandler struct {
	Owners *services.OwnerService
	Files  storage.Storage
}

// GET /api/v1/owners/me
func (h *OwnerHandler) Me(c *fiber.Ctx) error {
	d, err := h.Owners.Details(c.UserContext(), subject(c))
	if err != nil {
		return err
	}
	return c.JSON(detailsOut(h.Files, d))
}

type profileRequest struct {
	FirstName *string `json:"first_name" form:"first_name"`
	LastName  *string `json:"last_name" form:"last_name"`
}

// PUT /api/v1/owners/me
func (h *OwnerHandler) UpdateProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	o, err := h.Owners.UpdateProfile(c.UserContext(), subject(c), services.OwnerPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	applog.Audit(c, "owner.profile.update", nil)
	return c.JSON(ownerOut(*o))
}

type changePasswordRequest struct {
	Current string `json:"current_password" form:"current_password"`
	New     string `json:"new_password" form:"new_password"`
}

// PUT /api/v1/owners/me/password
func (h *OwnerHandler) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.Owners.ChangePassword(c.UserContext(), subject(c), req.Current, req.New); err != nil {
		return err
	}
	applog.Audit(c, "owner.password.change", nil)
	return c.JSON(fiber.Map{"message": "password updated"})
}

// PUT /api/v1/owners/me/deactivate
func (h *OwnerHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.Owners.Deactivate(c.UserContext(), subject(c)); err != nil {
		return err
	}
	applog.Audit(c, "owner.deactivate", nil)
	return c.JSON(fiber.Map{"message": "account deactivated"})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "storekeep/internal/log"
	"storekeep/internal/services"
	"storekeep/internal/storage"
)

type AdminHandler struct {
	Owners *services.OwnerService
	Admins *services.AdminService
	Files  storage.Storage
}

type registerOwnerRequest struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Email     string `json:"email" form:"email"`
}

// POST /api/v1/admin/owners
func (h *AdminHandler) RegisterOwner(c *fiber.Ctx) error {
	var req registerOwnerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	o, pw, err := h.Owners.Register(c.UserContext(), services.NewOwner{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.owners.create", map[string]any{"owner_id": o.ID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"owner": ownerOut(*o), "password": pw})
}

// GET /api/v1/admin/owners
func (h *AdminHandler) ListOwners(c *fiber.Ctx) error {
	owners, err := h.Owners.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(ownersOut(owners))
}

// GET /api/v1/admin/owners/:id
func (h *AdminHandler) GetOwner(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.Owners.Details(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(detailsOut(h.Files, d))
}

// PUT /api/v1/admin/owners/:id/reset-password
func (h *AdminHandler) ResetPassword(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	pw, err := h.Owners.ResetPassword(c.UserContext(), id)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.owners.reset_password", map[string]any{"owner_id": id})
	return c.JSON(fiber.Map{"password": pw})
}

// DELETE /api/v1/admin/owners/:id
func (h *AdminHandler) DeleteOwner(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rep, err := h.Owners.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.owners.delete", map[string]any{"owner_id": id, "report": rep})
	return c.JSON(reportOut(rep))
}

type adminRequest struct {
	Name  *string `json:"name" form:"name"`
	Email *string `json:"email" form:"email"`
}

// POST /api/v1/admin/admins
func (h *AdminHandler) CreateAdmin(c *fiber.Ctx) error {
	var req adminRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Name == nil {
		return invalidField("name")
	}
	if req.Email == nil {
		return invalidField("email")
	}
	a, pw, err := h.Admins.Create(c.UserContext(), services.NewAdmin{Name: *req.Name, Email: *req.Email})
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.admins.create", map[string]any{"target_admin_id": a.ID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"admin": adminOut(*a), "password": pw})
}

// GET /api/v1/admin/admins
func (h *AdminHandler) ListAdmins(c *fiber.Ctx) error {
	admins, err := h.Admins.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(adminsOut(admins))
}

// GET /api/v1/admin/admins/:id
func (h *AdminHandler) GetAdmin(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.Admins.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(adminOut(*a))
}

// PUT /api/v1/admin/admins/:id
func (h *AdminHandler) UpdateAdmin(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req adminRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	a, err := h.Admins.Update(c.UserContext(), id, services.AdminPatch{Name: req.Name, Email: req.Email})
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.admins.update", map[string]any{"target_admin_id": id})
	return c.JSON(adminOut(*a))
}

// DELETE /api/v1/admin/admins/:id
func (h *AdminHandler) DeleteAdmin(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Admins.Delete(c.UserContext(), id); err != nil {
		return err
	}
	applog.Audit(c, "admin.admins.delete", map[string]any{"target_admin_id": id})
	return c.JSON(fiber.Map{"message": "admin deleted"})
}

// PUT /api/v1/admin/me/password
func (h *AdminHandler) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.Admins.ChangePassword(c.UserContext(), subject(c), req.Current, req.New); err != nil {
		return err
	}
	applog.Audit(c, "admin.password.change", nil)
	return c.JSON(fiber.Map{"message": "password updated"})
}

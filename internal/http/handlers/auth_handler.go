package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "storekeep/internal/log"
	"storekeep/internal/services"
	"storekeep/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *AuthHandler) credentials(c *fiber.Ctx) (loginRequest, error) {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return req, err
	}
	email, ok := validate.Email(req.Email)
	if !ok || req.Password == "" {
		applog.Security(c, "auth.login.fail", map[string]any{"email": req.Email, "reason": "bad_format"})
		return req, services.ErrBadCreds
	}
	req.Email = email
	return req, nil
}

// POST /api/v1/admin/login
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	req, err := h.credentials(c)
	if err != nil {
		return err
	}
	tok, a, err := h.Auth.LoginAdmin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		applog.Security(c, "auth.admin.login.fail", map[string]any{"email": req.Email})
		return err
	}
	applog.Audit(c, "auth.admin.login.success", map[string]any{"admin_id": a.ID})
	return c.JSON(fiber.Map{"token": tok, "admin": adminOut(*a)})
}

// POST /api/v1/owners/login
func (h *AuthHandler) OwnerLogin(c *fiber.Ctx) error {
	req, err := h.credentials(c)
	if err != nil {
		return err
	}
	tok, o, err := h.Auth.LoginOwner(c.UserContext(), req.Email, req.Password)
	if err != nil {
		applog.Security(c, "auth.owner.login.fail", map[string]any{"email": req.Email})
		return err
	}
	applog.Audit(c, "auth.owner.login.success", map[string]any{"owner_id": o.ID})
	return c.JSON(fiber.Map{"token": tok, "owner": ownerOut(*o)})
}

package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"storekeep/internal/services"
)

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return requireRole(auth, services.RoleAdmin)
}

// RequireOwner admits requests carrying a token of an active owner and
// stores the owner id under Locals("subject").
func RequireOwner(auth *services.AuthService) fiber.Handler {
	return requireRole(auth, services.RoleOwner)
}

func requireRole(auth *services.AuthService, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearer(c)
		if tok == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		claims, err := auth.Authorize(c.UserContext(), tok, role)
		if err != nil {
			return err
		}
		c.Locals("subject", claims.Subject)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

func bearer(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// subject is the authenticated admin or owner id.
func subject(c *fiber.Ctx) string {
	s, _ := c.Locals("subject").(string)
	return s
}

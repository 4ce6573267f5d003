package handlers

import "github.com/gofiber/fiber/v2"

// Register mounts every route on app.
func Register(app *fiber.App, d *Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get(mediaPrefix+"/*", d.Media.Serve)

	api := app.Group("/api/v1")
	admin := RequireAdmin(d.AuthSvc)
	owner := RequireOwner(d.AuthSvc)

	// Admin
	api.Post("/admin/login", d.Auth.AdminLogin)
	api.Post("/admin/owners", admin, d.Admin.RegisterOwner)
	api.Get("/admin/owners", admin, d.Admin.ListOwners)
	api.Get("/admin/owners/:id", admin, d.Admin.GetOwner)
	api.Put("/admin/owners/:id/reset-password", admin, d.Admin.ResetPassword)
	api.Delete("/admin/owners/:id", admin, d.Admin.DeleteOwner)
	api.Put("/admin/me/password", admin, d.Admin.ChangePassword)
	api.Post("/admin/admins", admin, d.Admin.CreateAdmin)
	api.Get("/admin/admins", admin, d.Admin.ListAdmins)
	api.Get("/admin/admins/:id", admin, d.Admin.GetAdmin)
	api.Put("/admin/admins/:id", admin, d.Admin.UpdateAdmin)
	api.Delete("/admin/admins/:id", admin, d.Admin.DeleteAdmin)

	// Owner account
	api.Post("/owners/login", d.Auth.OwnerLogin)
	api.Get("/owners/me", owner, d.Owner.Me)
	api.Put("/owners/me", owner, d.Owner.UpdateProfile)
	api.Put("/owners/me/password", owner, d.Owner.ChangePassword)
	api.Put("/owners/me/deactivate", owner, d.Owner.Deactivate)

	// Stores
	api.Post("/stores", owner, d.Stores.Create)
	api.Get("/stores", owner, d.Stores.List)
	api.Get("/stores/:id", owner, d.Stores.Get)
	api.Put("/stores/:id", owner, d.Stores.Update)
	api.Delete("/stores/:id", owner, d.Stores.Delete)
	api.Get("/stores/:id/categories", owner, d.Stores.Categories)
	api.Get("/stores/:id/sales", owner, d.Stores.SalesList)

	// Categories
	api.Post("/categories", owner, d.Categories.Create)
	api.Get("/categories", owner, d.Categories.List)
	api.Get("/categories/:id", owner, d.Categories.Get)
	api.Put("/categories/:id", owner, d.Categories.Update)
	api.Delete("/categories/:id", owner, d.Categories.Delete)
	api.Get("/categories/:id/products", owner, d.Categories.Products)

	// Products
	api.Post("/products", owner, d.Products.Create)
	api.Get("/products", owner, d.Products.List)
	api.Get("/products/:id", owner, d.Products.Get)
	api.Put("/products/:id", owner, d.Products.Update)
	api.Delete("/products/:id", owner, d.Products.Delete)
	api.Get("/products/:id/availability", owner, d.Inventory.Check)
	api.Get("/products/:id/sales", owner, d.Products.SalesList)

	// Sales
	api.Post("/sales", owner, d.Sales.Create)
	api.Get("/sales", owner, d.Sales.List)
	api.Get("/sales/:id", owner, d.Sales.Get)
	api.Put("/sales/:id", owner, d.Sales.Update)
	api.Delete("/sales/:id", owner, d.Sales.Delete)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "route not found"})
	})
}

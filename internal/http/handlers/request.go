package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storekeep/internal/domain"
	"storekeep/internal/services"
	"storekeep/internal/validate"
)

// pathID reads and validates an id route parameter.
func pathID(c *fiber.Ctx, name string) (string, error) {
	id, ok := validate.ID(c.Params(name))
	if !ok {
		return "", domain.Invalid("invalid %s", name)
	}
	return id, nil
}

func invalidField(name string) error {
	return domain.Invalid("%s is required", name)
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return domain.Invalid("malformed request body")
	}
	return nil
}

// formImage returns the optional "image" file of a multipart request. The
// caller closes it once the service returns.
func formImage(c *fiber.Ctx, maxBytes int) (*services.Image, func(), error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, func() {}, nil
	}
	if maxBytes > 0 && fh.Size > int64(maxBytes) {
		return nil, func() {}, domain.Invalid("image exceeds %d bytes", maxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, domain.Invalid("unreadable image upload")
	}
	return &services.Image{Filename: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}

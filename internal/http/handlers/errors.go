package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"storekeep/internal/domain"
	applog "storekeep/internal/log"
	"storekeep/internal/services"
)

const internalMessage = "Something went wrong. Please try again."

// ErrorHandler turns an error returned by a handler into a JSON response.
// 5xx responses never carry the underlying message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, msg := classify(err)
	switch {
	case status >= fiber.StatusInternalServerError:
		applog.Error(c, "server.error", err, nil)
		msg = internalMessage
	case status == fiber.StatusUnauthorized || status == fiber.StatusForbidden:
		applog.Security(c, "access.denied", map[string]any{"reason": err.Error()})
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, trimCause(err, domain.ErrValidation)
	case errors.Is(err, services.ErrBadCreds), errors.Is(err, services.ErrBadToken):
		return fiber.StatusUnauthorized, errors.Cause(err).Error()
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, err.Error()
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, internalMessage
}

// trimCause drops the ": <sentinel>" suffix pkg/errors appends when wrapping.
func trimCause(err, sentinel error) string {
	return strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
}

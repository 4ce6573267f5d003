package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	applog "storekeep/internal/log"
)

// AccessLog writes one "http.access" entry per request to the action log.
// Errors from the chain are rendered here so the entry carries the final
// status.
func AccessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		applog.Info(c, "http.access", map[string]any{"latency_ms": time.Since(start).Milliseconds()})
		return nil
	}
}

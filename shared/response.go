package shared

import (
	"github.com/gofiber/fiber/v2"
)

// API responses are never cacheable; counters change constantly and admin
// responses must not stick in shared caches.

func ResponseJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(statusCode).JSON(data)
}

func ResponseText(c *fiber.Ctx, statusCode int, body string) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	return c.Status(statusCode).SendString(body)
}

// ResponseNotFoundText mirrors the plain-text 404 used to hide private
// counters and unlisted static paths.
func ResponseNotFoundText(c *fiber.Ctx, body string) error {
	return ResponseText(c, fiber.StatusNotFound, body)
}

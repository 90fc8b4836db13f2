package shared

import "github.com/gofiber/fiber/v2"

// Request locals set once per request by the auth middleware.
const (
	IsAdminKey  = "is_admin"
	ClientIPKey = "client_ip"
)

// IsAdmin reports whether the auth middleware verified an admin token on
// this request. Defaults to false when detection never ran.
func IsAdmin(c *fiber.Ctx) bool {
	isAdmin, _ := c.Locals(IsAdminKey).(bool)
	return isAdmin
}

// ClientIP returns the normalized client IP stored by the auth middleware,
// falling back to header inspection when detection never ran.
func ClientIP(c *fiber.Ctx) string {
	ip, _ := c.Locals(ClientIPKey).(string)
	if ip == "" {
		return GetClientIP(c)
	}
	return ip
}

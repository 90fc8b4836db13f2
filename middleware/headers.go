package middleware

import (
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"

	"github.com/staszek-kampania/backend/shared"
)

// HeadersMiddleware owns the browser-facing policy headers: the security
// header set on every response and the exact-origin CORS gate on /api.
// With no CORS_ORIGINS configured every origin passes (same-origin
// deployments behind one domain).
type HeadersMiddleware struct {
	context.DefaultService

	corsOrigins []string
}

const HEADERS_MIDDLEWARE_SVC = "headers"

func (svc HeadersMiddleware) Id() string {
	return HEADERS_MIDDLEWARE_SVC
}

func (svc *HeadersMiddleware) Configure(ctx *context.Context) error {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("CORS_ORIGIN"))
	}
	for _, part := range strings.Split(raw, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			svc.corsOrigins = append(svc.corsOrigins, origin)
		}
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *HeadersMiddleware) Start() error {
	return nil
}

func isHTTPS(c *fiber.Ctx) bool {
	return strings.EqualFold(strings.TrimSpace(c.Get("X-Forwarded-Proto")), "https")
}

// Security sets the hardening headers on every response; HSTS only behind
// a TLS-terminating proxy.
func (svc *HeadersMiddleware) Security() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=(), usb=(), interest-cohort=()")
		c.Set("Cross-Origin-Opener-Policy", "same-origin")
		c.Set("Cross-Origin-Resource-Policy", "same-site")
		if isHTTPS(c) {
			c.Set(fiber.HeaderStrictTransportSecurity, "max-age=15552000; includeSubDomains")
		}
		return c.Next()
	}
}

func (svc *HeadersMiddleware) originAllowed(origin string) bool {
	if origin == "" || len(svc.corsOrigins) == 0 {
		return true
	}
	for _, allowed := range svc.corsOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// CORS guards the API group: exact-origin allowlist, 403 for everything
// else, 204 for preflight.
func (svc *HeadersMiddleware) CORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := strings.TrimSpace(c.Get(fiber.HeaderOrigin))

		c.Set(fiber.HeaderAccessControlAllowMethods, "GET,POST,OPTIONS")
		c.Set(fiber.HeaderAccessControlAllowHeaders, "content-type,authorization")
		c.Set(fiber.HeaderAccessControlMaxAge, "600")
		if origin != "" && len(svc.corsOrigins) > 0 && svc.originAllowed(origin) {
			c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
			c.Set(fiber.HeaderVary, fiber.HeaderOrigin)
		}

		if !svc.originAllowed(origin) {
			return shared.ErrForbidden("origin_not_allowed")
		}

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}

		return c.Next()
	}
}

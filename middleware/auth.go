package middleware

import (
	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"

	"github.com/staszek-kampania/backend/shared"
)

// adminTokenVerifier is the slice of the JWT service the middleware needs.
type adminTokenVerifier interface {
	ExtractTokenFromHeader(header string) (string, error)
	VerifyAdminToken(token string) error
}

// AuthMiddleware resolves the caller identity once per request: the
// normalized client IP always, and the admin flag when a valid bearer
// token is present. Admin is optional on most routes (it changes behavior
// rather than gating it), so detection never fails the request.
type AuthMiddleware struct {
	context.DefaultService

	jwtSvc adminTokenVerifier
}

const AUTH_MIDDLEWARE_SVC = "auth"

func (svc AuthMiddleware) Id() string {
	return AUTH_MIDDLEWARE_SVC
}

func (svc *AuthMiddleware) Configure(ctx *context.Context) error {
	svc.jwtSvc = ctx.Service(shared.JWTServiceID).(adminTokenVerifier)
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthMiddleware) Start() error {
	return nil
}

// DetectAdmin stores the client IP and admin flag in request locals.
func (svc *AuthMiddleware) DetectAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(shared.ClientIPKey, shared.GetClientIP(c))

		isAdmin := false
		if token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization)); err == nil {
			isAdmin = svc.jwtSvc.VerifyAdminToken(token) == nil
		}
		c.Locals(shared.IsAdminKey, isAdmin)

		return c.Next()
	}
}

// RequireAdmin rejects non-admin callers. DetectAdmin must run first.
func (svc *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !shared.IsAdmin(c) {
			return shared.ErrUnauthorized("admin_required")
		}
		return c.Next()
	}
}

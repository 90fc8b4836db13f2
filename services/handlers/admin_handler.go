package handlers

import (
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"github.com/staszek-kampania/backend/dto"
	"github.com/staszek-kampania/backend/shared"
)

// AdminHandler is the whole account system: one shared password, one
// session. Logging in rotates the session id so older tokens die, and the
// lockout/limiter checks run before anything that could leak whether the
// password was close.
type AdminHandler struct {
	authSvc      AuthServiceInterface
	jwtSvc       JWTServiceInterface
	rateLimitSvc RateLimitServiceInterface
}

const loginBodyLimit = 16 * 1024

func NewAdminHandler(authSvc AuthServiceInterface, jwtSvc JWTServiceInterface, rateLimitSvc RateLimitServiceInterface) *AdminHandler {
	return &AdminHandler{
		authSvc:      authSvc,
		jwtSvc:       jwtSvc,
		rateLimitSvc: rateLimitSvc,
	}
}

// @Summary Admin login
// @Description Exchanges the admin password for a bearer token. Issuing a token invalidates all previously issued tokens.
// @Tags admin
// @Accept json
// @Produce json
// @Param loginRequest body dto.AdminLoginRequest true "Admin password"
// @Success 200 {object} dto.AdminLoginResponse
// @Failure 401 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Router /api/admin/login [post]
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	ip := shared.ClientIP(c)

	if blocked := h.authSvc.LoginRetryAfter(ip); blocked > 0 {
		return shared.NewAppError(http.StatusTooManyRequests, "admin_locked").WithRetryAfter(blocked)
	}

	if allowed, retryAfter := h.rateLimitSvc.Requests().Hit(ip); !allowed {
		return shared.ErrRateLimited("requests", retryAfter)
	}

	if !h.authSvc.Configured() || !h.jwtSvc.Configured() {
		return shared.NewAppError(http.StatusInternalServerError, "admin_not_configured").
			WithHint("Set ADMIN_PASSWORD and ADMIN_TOKEN_SECRET in backend env.")
	}

	if !strings.Contains(strings.ToLower(c.Get(fiber.HeaderContentType)), "application/json") {
		return shared.NewAppError(http.StatusUnsupportedMediaType, "unsupported_media_type")
	}

	body := c.Body()
	if len(body) > loginBodyLimit {
		return shared.ErrPayloadTooLarge()
	}

	var req dto.AdminLoginRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		return shared.ErrBadRequest("invalid_json")
	}

	// A request failing validation counts as a wrong password; the endpoint
	// never reveals which check failed.
	if req.Validate() != nil || !h.authSvc.VerifyPassword(req.Password) {
		if after := h.authSvc.RegisterLoginFailure(ip); after > 0 {
			return shared.NewAppError(http.StatusTooManyRequests, "admin_locked").WithRetryAfter(after)
		}
		return shared.ErrUnauthorized("invalid_password")
	}

	h.authSvc.ResetLoginFailures(ip)

	sid := h.jwtSvc.RotateSession()
	token, err := h.jwtSvc.IssueAdminToken(sid)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, dto.AdminLoginResponse{Token: token})
}

// @Summary Admin logout
// @Description Invalidates every outstanding admin token by rotating the session.
// @Tags admin
// @Produce json
// @Success 200 {object} dto.AdminStatusResponse
// @Failure 401 {object} dto.AdminStatusResponse
// @Router /api/admin/logout [post]
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	if !shared.IsAdmin(c) {
		return shared.ResponseJSON(c, http.StatusUnauthorized, dto.AdminStatusResponse{OK: false})
	}
	h.jwtSvc.RotateSession()
	return shared.ResponseJSON(c, http.StatusOK, dto.AdminStatusResponse{OK: true})
}

// @Summary Admin session check
// @Tags admin
// @Produce json
// @Success 200 {object} dto.AdminStatusResponse
// @Failure 401 {object} dto.AdminStatusResponse
// @Router /api/admin/me [get]
func (h *AdminHandler) Me(c *fiber.Ctx) error {
	if !shared.IsAdmin(c) {
		return shared.ResponseJSON(c, http.StatusUnauthorized, dto.AdminStatusResponse{OK: false})
	}
	return shared.ResponseJSON(c, http.StatusOK, dto.AdminStatusResponse{OK: true})
}

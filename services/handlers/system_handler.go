package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/staszek-kampania/backend/dto"
	"github.com/staszek-kampania/backend/shared"
)

type SystemHandler struct {
	moderationSvc   ModerationServiceInterface
	serverStartedAt string
}

func NewSystemHandler(moderationSvc ModerationServiceInterface, serverStartedAt string) *SystemHandler {
	return &SystemHandler{
		moderationSvc:   moderationSvc,
		serverStartedAt: serverStartedAt,
	}
}

// @Summary Liveness probe
// @Produce plain
// @Success 200 {string} string "ok"
// @Router /api/healthz [get]
func (h *SystemHandler) Healthz(c *fiber.Ctx) error {
	return shared.ResponseText(c, http.StatusOK, "ok")
}

// @Summary Deployment metadata
// @Description Reports the deployment markers injected by the release pipeline.
// @Produce json
// @Success 200 {object} dto.DeployInfo
// @Router /api/deploy [get]
func (h *SystemHandler) Deploy(c *fiber.Ctx) error {
	return shared.ResponseJSON(c, http.StatusOK, dto.DeployInfo{
		OK:              true,
		DeployedAt:      optionalEnv("DEPLOYED_AT"),
		GitSHA:          optionalEnv("GIT_SHA"),
		Service:         optionalEnv("K_SERVICE"),
		Revision:        optionalEnv("K_REVISION"),
		ServerStartedAt: h.serverStartedAt,
	})
}

// @Summary Moderation configuration status
// @Produce json
// @Success 200 {object} dto.ModerationStatus
// @Router /api/moderation/active [get]
func (h *SystemHandler) ModerationActive(c *fiber.Ctx) error {
	return shared.ResponseJSON(c, http.StatusOK, dto.ModerationStatus{
		OK:         true,
		Configured: h.moderationSvc.Configured(),
		Model:      h.moderationSvc.Model(),
		BaseURL:    h.moderationSvc.BaseURL(),
	})
}

func optionalEnv(key string) *string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	return &v
}

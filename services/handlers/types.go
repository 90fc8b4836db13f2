package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/staszek-kampania/backend/model"
)

type AuthServiceInterface interface {
	Configured() bool
	VerifyPassword(password string) bool
	LoginRetryAfter(ip string) int
	RegisterLoginFailure(ip string) int
	ResetLoginFailures(ip string)
}

type JWTServiceInterface interface {
	Configured() bool
	RotateSession() string
	IssueAdminToken(sessionID string) (string, error)
	VerifyAdminToken(jwtToken string) error
	ExtractTokenFromHeader(authHeader string) (string, error)
}

type RateLimitServiceInterface interface {
	Requests() *model.SlidingLimiter
	Comments() *model.SlidingLimiter
}

type LicznikServiceInterface interface {
	HasAPIKey() bool
	FetchText(apiPath string) (*model.UpstreamResult, error)
	GetInt(counterName string) (int64, bool)
	ResetCounter(name string) error
	Proxy(c *fiber.Ctx, apiPath string, rawQuery string) error
}

type ModerationServiceInterface interface {
	Configured() bool
	Model() string
	BaseURL() string
	Moderate(threadKey, name, message string, isAdmin bool) model.ModerationResult
}

type ReputationServiceInterface interface {
	IsBanned(ip string) bool
	RecordScore(ip string, score int) model.IPReputation
	MarkForumIPSeen(threadKey, ip string)
}

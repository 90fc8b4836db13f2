package middleware

import (
	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"

	"github.com/staszek-kampania/backend/model"
	"github.com/staszek-kampania/backend/shared"
)

// requestLimiterSource is the slice of the rate limit service the
// middleware needs.
type requestLimiterSource interface {
	Requests() *model.SlidingLimiter
}

// RateLimitMiddleware applies the general per-IP request limiter. The
// comment limiter is not a middleware: the forum handler consults it only
// after validation, so malformed junk does not burn the caller's quota.
type RateLimitMiddleware struct {
	context.DefaultService

	rateLimitSvc requestLimiterSource
}

const RATE_LIMIT_MIDDLEWARE_SVC = "rate_limit"

func (svc RateLimitMiddleware) Id() string {
	return RATE_LIMIT_MIDDLEWARE_SVC
}

func (svc *RateLimitMiddleware) Configure(ctx *context.Context) error {
	svc.rateLimitSvc = ctx.Service(shared.RateLimitServiceID).(requestLimiterSource)
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitMiddleware) Start() error {
	return nil
}

func (svc *RateLimitMiddleware) Requests() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := shared.ClientIP(c)
		if allowed, retryAfter := svc.rateLimitSvc.Requests().Hit(ip); !allowed {
			shared.RecordRateLimitRejection("requests")
			return shared.ErrRateLimited("requests", retryAfter)
		}
		return c.Next()
	}
}

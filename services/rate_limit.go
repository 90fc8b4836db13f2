package services

import (
	"time"

	"github.com/alphabatem/common/context"

	"github.com/staszek-kampania/backend/model"
	"github.com/staszek-kampania/backend/shared"
)

// RateLimitService owns the two per-IP limiters: a generic one covering all
// mutating API requests and a much tighter one for comment submission.
type RateLimitService struct {
	context.DefaultService

	requests *model.SlidingLimiter
	comments *model.SlidingLimiter
}

const RATE_LIMIT_SVC = shared.RateLimitServiceID

func RequestRateLimitRules() []model.RateLimitRule {
	return []model.RateLimitRule{
		{Key: "sec", Window: time.Second, Limit: 2},
		{Key: "min", Window: time.Minute, Limit: 60},
		{Key: "hour", Window: time.Hour, Limit: 600},
		{Key: "day", Window: 24 * time.Hour, Limit: 1000},
	}
}

func CommentRateLimitRules() []model.RateLimitRule {
	return []model.RateLimitRule{
		{Key: "tenSec", Window: 10 * time.Second, Limit: 2},
		{Key: "hour", Window: time.Hour, Limit: 10},
		{Key: "day", Window: 24 * time.Hour, Limit: 15},
	}
}

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *context.Context) error {
	svc.requests = model.NewSlidingLimiter(RequestRateLimitRules())
	svc.comments = model.NewSlidingLimiter(CommentRateLimitRules())
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	return nil
}

func (svc *RateLimitService) Requests() *model.SlidingLimiter {
	return svc.requests
}

func (svc *RateLimitService) Comments() *model.SlidingLimiter {
	return svc.comments
}

package model

import "time"

// RateLimitRule is one sliding window: at most Limit hits per Window.
type RateLimitRule struct {
	Key    string
	Window time.Duration
	Limit  int
}

type RateLimitWindow struct {
	Start time.Time
	Count int
}

// RateLimitRecord holds all window counters for one client IP. Created
// lazily on first request and swept once the IP has been idle past the
// limiter TTL.
type RateLimitRecord struct {
	Last    time.Time
	Windows map[string]*RateLimitWindow
}

// LoginFailureRecord tracks consecutive failed admin logins from one IP
// and the computed exponential-backoff lockout.
type LoginFailureRecord struct {
	Last         time.Time
	Fails        int
	BlockedUntil time.Time
}

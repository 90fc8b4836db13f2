package model

import (
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	limiterSweepEvery = 500
	limiterRecordTTL  = 48 * time.Hour
)

// SlidingLimiter keeps one multi-window counter record per client IP.
// All window state for an IP is updated atomically under one mutex, so
// concurrent requests from the same IP can never corrupt a window.
type SlidingLimiter struct {
	mutex     sync.Mutex
	rules     []RateLimitRule
	records   map[string]*RateLimitRecord
	sweepTick int

	now func() time.Time
}

func NewSlidingLimiter(rules []RateLimitRule) *SlidingLimiter {
	return &SlidingLimiter{
		rules:   rules,
		records: make(map[string]*RateLimitRecord),
		now:     time.Now,
	}
}

// Hit registers one request from ip. A single exceeded window rejects the
// whole request; retryAfter is taken from the first broken rule. Unknown
// callers (empty ip) are never limited.
func (l *SlidingLimiter) Hit(ip string) (bool, int) {
	if ip == "" {
		return true, 0
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	rec := l.records[ip]
	if rec == nil {
		rec = &RateLimitRecord{Windows: make(map[string]*RateLimitWindow, len(l.rules))}
		for _, r := range l.rules {
			rec.Windows[r.Key] = &RateLimitWindow{Start: now}
		}
		l.records[ip] = rec
	}
	rec.Last = now

	for _, r := range l.rules {
		w := rec.Windows[r.Key]
		if w == nil {
			w = &RateLimitWindow{Start: now}
			rec.Windows[r.Key] = w
		}
		if now.Sub(w.Start) >= r.Window {
			w.Start = now
			w.Count = 0
		}
		w.Count++
		if w.Count > r.Limit {
			remaining := w.Start.Add(r.Window).Sub(now)
			retryAfter := int(math.Ceil(remaining.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			return false, retryAfter
		}
	}

	l.sweepTick++
	if l.sweepTick%limiterSweepEvery == 0 {
		l.sweepLocked(now)
	}

	return true, 0
}

func (l *SlidingLimiter) sweepLocked(now time.Time) {
	before := len(l.records)
	for ip, rec := range l.records {
		if rec.Last.IsZero() || now.Sub(rec.Last) > limiterRecordTTL {
			delete(l.records, ip)
		}
	}
	if dropped := before - len(l.records); dropped > 0 {
		log.WithField("dropped", dropped).Debug("Rate limiter sweep completed")
	}
}

// Size reports the number of tracked IPs. Used by tests and metrics.
func (l *SlidingLimiter) Size() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.records)
}

// SetClock overrides the limiter clock, for tests.
func (l *SlidingLimiter) SetClock(now func() time.Time) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.now = now
}

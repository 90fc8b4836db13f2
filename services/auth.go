package services

import (
	"crypto/subtle"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/staszek-kampania/backend/model"
)

// AuthService verifies the single admin password and applies a per-IP
// lockout with exponential backoff against online guessing. There is no
// user store: one configured secret, one admin.
type AuthService struct {
	context.DefaultService

	adminPassword       string
	adminPasswordBcrypt string

	failureMutex sync.Mutex
	failuresByIP map[string]*model.LoginFailureRecord

	now func() time.Time
}

const AUTH_SVC = "auth_svc"

const (
	loginLockoutAfter   = 5
	loginLockoutMaxSec  = 6 * 60 * 60
	loginFailureTTL     = 48 * time.Hour
	loginFailureSweepAt = time.Hour
)

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	svc.adminPassword = strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))
	svc.adminPasswordBcrypt = strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_BCRYPT"))
	svc.failuresByIP = make(map[string]*model.LoginFailureRecord)
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	go svc.startSweepJob()
	return nil
}

func (svc *AuthService) Configured() bool {
	return svc.adminPassword != "" || svc.adminPasswordBcrypt != ""
}

// VerifyPassword compares in constant time. When ADMIN_PASSWORD_BCRYPT is
// set it takes precedence over the plain secret.
func (svc *AuthService) VerifyPassword(password string) bool {
	if svc.adminPasswordBcrypt != "" {
		return bcrypt.CompareHashAndPassword([]byte(svc.adminPasswordBcrypt), []byte(password)) == nil
	}
	if svc.adminPassword == "" {
		return false
	}
	if len(password) != len(svc.adminPassword) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(svc.adminPassword)) == 1
}

// LoginRetryAfter reports the remaining lockout for ip in seconds, or 0
// when the IP may attempt a login.
func (svc *AuthService) LoginRetryAfter(ip string) int {
	cleanIP := strings.TrimSpace(ip)
	if cleanIP == "" {
		return 0
	}

	svc.failureMutex.Lock()
	defer svc.failureMutex.Unlock()

	rec := svc.failuresByIP[cleanIP]
	if rec == nil || rec.BlockedUntil.IsZero() {
		return 0
	}
	now := svc.now()
	if !now.Before(rec.BlockedUntil) {
		return 0
	}
	retryAfter := int(math.Ceil(rec.BlockedUntil.Sub(now).Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return retryAfter
}

// RegisterLoginFailure counts one failed attempt. From the fifth failure on
// the IP is locked for 60*2^(fails-5) seconds, capped at six hours. Returns
// the lockout applied now, or 0 when the attempt only counted.
func (svc *AuthService) RegisterLoginFailure(ip string) int {
	cleanIP := strings.TrimSpace(ip)
	if cleanIP == "" {
		return 0
	}

	svc.failureMutex.Lock()
	defer svc.failureMutex.Unlock()

	now := svc.now()
	rec := svc.failuresByIP[cleanIP]
	if rec == nil {
		rec = &model.LoginFailureRecord{}
		svc.failuresByIP[cleanIP] = rec
	}
	rec.Last = now
	rec.Fails++

	if rec.Fails >= loginLockoutAfter {
		pow := rec.Fails - loginLockoutAfter
		sec := 60 * math.Pow(2, float64(pow))
		if sec > loginLockoutMaxSec {
			sec = loginLockoutMaxSec
		}
		rec.BlockedUntil = now.Add(time.Duration(sec) * time.Second)
		retryAfter := int(math.Ceil(sec))
		if retryAfter < 1 {
			retryAfter = 1
		}
		log.WithField("ip", cleanIP).WithField("fails", rec.Fails).Warn("Admin login locked out")
		return retryAfter
	}

	return 0
}

// ResetLoginFailures clears the failure record after a successful login.
func (svc *AuthService) ResetLoginFailures(ip string) {
	cleanIP := strings.TrimSpace(ip)
	if cleanIP == "" {
		return
	}

	svc.failureMutex.Lock()
	defer svc.failureMutex.Unlock()
	delete(svc.failuresByIP, cleanIP)
}

func (svc *AuthService) startSweepJob() {
	ticker := time.NewTicker(loginFailureSweepAt)
	defer ticker.Stop()

	for range ticker.C {
		svc.sweepFailures()
	}
}

func (svc *AuthService) sweepFailures() {
	svc.failureMutex.Lock()
	defer svc.failureMutex.Unlock()

	now := svc.now()
	for ip, rec := range svc.failuresByIP {
		if rec.Last.IsZero() || now.Sub(rec.Last) > loginFailureTTL {
			delete(svc.failuresByIP, ip)
		}
	}
}

package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/staszek-kampania/backend/shared"
)

// JWTService issues and verifies the single-admin tokens. Only one admin
// session is valid at a time: every successful login (and every logout)
// rotates the session id, which instantly invalidates all tokens issued
// before, regardless of their own expiry.
type JWTService struct {
	context.DefaultService

	TokenTTL time.Duration

	jwtSecretKey string

	sessionMutex sync.RWMutex
	sessionID    string
}

type AdminClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

const JWT_SVC = shared.JWTServiceID

const (
	defaultTokenTTLDays = 7
	minTokenTTLDays     = 1
	maxTokenTTLDays     = 30

	// Shorter secrets make HS256 brute-forceable; refuse to accept tokens.
	minTokenSecretLength = 24
)

func (svc JWTService) Id() string {
	return JWT_SVC
}

func (svc *JWTService) Configure(ctx *context.Context) error {
	svc.jwtSecretKey = os.Getenv("ADMIN_TOKEN_SECRET")
	svc.TokenTTL = time.Duration(parseTokenTTLDays(os.Getenv("ADMIN_TOKEN_TTL_DAYS"))) * 24 * time.Hour
	svc.sessionID = uuid.NewString()
	return svc.DefaultService.Configure(ctx)
}

func (svc *JWTService) Start() error {
	return nil
}

func parseTokenTTLDays(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultTokenTTLDays
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultTokenTTLDays
	}
	if n < minTokenTTLDays {
		return minTokenTTLDays
	}
	if n > maxTokenTTLDays {
		return maxTokenTTLDays
	}
	return n
}

func (svc *JWTService) Configured() bool {
	return svc.jwtSecretKey != ""
}

// RotateSession invalidates every previously issued token and returns the
// new session id.
func (svc *JWTService) RotateSession() string {
	svc.sessionMutex.Lock()
	defer svc.sessionMutex.Unlock()
	svc.sessionID = uuid.NewString()
	return svc.sessionID
}

func (svc *JWTService) currentSessionID() string {
	svc.sessionMutex.RLock()
	defer svc.sessionMutex.RUnlock()
	return svc.sessionID
}

// IssueAdminToken signs a token bound to the given session id.
func (svc *JWTService) IssueAdminToken(sessionID string) (string, error) {
	if svc.jwtSecretKey == "" {
		return "", errors.New("admin token secret not configured")
	}

	now := time.Now()
	claims := &AdminClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   shared.AdminSubject,
			Issuer:    shared.AdminIssuer,
			Audience:  jwt.ClaimStrings{shared.AdminAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(svc.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(svc.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}

	return tokenString, nil
}

// VerifyAdminToken accepts a token only when the signature, subject,
// issuer, audience and expiry all check out AND the embedded session id
// matches the current one.
func (svc *JWTService) VerifyAdminToken(jwtToken string) error {
	if len(svc.jwtSecretKey) < minTokenSecretLength {
		return errors.New("admin token secret missing or too short")
	}

	token, err := jwt.ParseWithClaims(
		strings.TrimSpace(jwtToken),
		&AdminClaims{},
		svc.getJWTKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(shared.AdminSubject),
		jwt.WithIssuer(shared.AdminIssuer),
		jwt.WithAudience(shared.AdminAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return err
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || claims == nil {
		return errors.New("unsupported JWT format")
	}
	if claims.SessionID == "" || claims.SessionID != svc.currentSessionID() {
		return errors.New("token session no longer active")
	}

	return nil
}

func (svc *JWTService) getJWTKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	return []byte(svc.jwtSecretKey), nil
}

func (svc *JWTService) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return "", errors.New("invalid authorization header format")
	}

	return strings.TrimSpace(authHeader[7:]), nil
}

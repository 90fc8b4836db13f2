package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"github.com/staszek-kampania/backend/model"
	"github.com/staszek-kampania/backend/shared"
)

// Test scaffolding shared by the handler tests: a fiber app with the real
// error handler and identity locals injected from test headers.

func newAPIApp(register func(api fiber.Router)) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadBufferSize:        16384,
		ErrorHandler:          shared.ErrorHandler,
	})
	api := app.Group("/api", func(c *fiber.Ctx) error {
		ip := c.Get("X-Test-IP")
		if ip == "" {
			ip = "203.0.113.50"
		}
		c.Locals(shared.ClientIPKey, ip)
		c.Locals(shared.IsAdminKey, c.Get("X-Test-Admin") == "1")
		return c.Next()
	})
	register(api)
	return app
}

func asAdmin(req *http.Request) *http.Request {
	req.Header.Set("X-Test-Admin", "1")
	return req
}

func decodeJSONBody(resp *http.Response) map[string]interface{} {
	var out map[string]interface{}
	defer resp.Body.Close()
	_ = sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&out)
	return out
}

// ==================== FAKE SERVICES ====================

type fakeLicznik struct {
	mu sync.Mutex

	hasKey   bool
	counters map[string]int64

	fetchResults []*model.UpstreamResult
	fetchErr     error
	fetched      []string
	resets       []string
	proxied      []string
}

func newFakeLicznik() *fakeLicznik {
	return &fakeLicznik{hasKey: true, counters: map[string]int64{}}
}

func (f *fakeLicznik) HasAPIKey() bool { return f.hasKey }

func (f *fakeLicznik) FetchText(apiPath string) (*model.UpstreamResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, apiPath)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.fetchResults) == 0 {
		return &model.UpstreamResult{Status: http.StatusOK, Body: []byte("ok")}, nil
	}
	res := f.fetchResults[0]
	if len(f.fetchResults) > 1 {
		f.fetchResults = f.fetchResults[1:]
	}
	return res, nil
}

func (f *fakeLicznik) GetInt(counterName string) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.counters[counterName]
	return n, ok
}

func (f *fakeLicznik) ResetCounter(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, name)
	f.counters[name] = 0
	return nil
}

func (f *fakeLicznik) Proxy(c *fiber.Ctx, apiPath string, rawQuery string) error {
	f.mu.Lock()
	f.proxied = append(f.proxied, apiPath)
	f.mu.Unlock()
	return c.SendString("proxied:" + apiPath)
}

func (f *fakeLicznik) fetchedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

func textResult(status int, body string) *model.UpstreamResult {
	return &model.UpstreamResult{Status: status, Body: []byte(body), ContentType: "text/plain; charset=utf-8"}
}

type fakeRateLimits struct {
	requests *model.SlidingLimiter
	comments *model.SlidingLimiter
}

func newFakeRateLimits() *fakeRateLimits {
	generous := func() *model.SlidingLimiter {
		return model.NewSlidingLimiter([]model.RateLimitRule{
			{Key: "day", Window: 24 * time.Hour, Limit: 100000},
		})
	}
	return &fakeRateLimits{requests: generous(), comments: generous()}
}

func (f *fakeRateLimits) Requests() *model.SlidingLimiter { return f.requests }
func (f *fakeRateLimits) Comments() *model.SlidingLimiter { return f.comments }

type fakeModeration struct {
	mu     sync.Mutex
	result model.ModerationResult
	calls  []string
}

func (f *fakeModeration) Configured() bool { return true }
func (f *fakeModeration) Model() string    { return "test-model" }
func (f *fakeModeration) BaseURL() string  { return "http://moderation.test" }

func (f *fakeModeration) Moderate(threadKey, name, message string, isAdmin bool) model.ModerationResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("%s|%s|%s|%v", threadKey, name, message, isAdmin))
	if isAdmin {
		return model.ModerationResult{OK: true, Score: 8}
	}
	return f.result
}

func (f *fakeModeration) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeReputation struct {
	mu       sync.Mutex
	banned   map[string]bool
	recorded []int
	banOn    bool
	seen     chan string
}

func newFakeReputation() *fakeReputation {
	return &fakeReputation{banned: map[string]bool{}, seen: make(chan string, 8)}
}

func (f *fakeReputation) IsBanned(ip string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banned[ip]
}

func (f *fakeReputation) RecordScore(ip string, score int) model.IPReputation {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, score)
	return model.IPReputation{Count: int64(len(f.recorded)), Banned: f.banOn}
}

func (f *fakeReputation) MarkForumIPSeen(threadKey, ip string) {
	f.seen <- threadKey + "|" + ip
}

func (f *fakeReputation) recordedScores() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.recorded...)
}

type fakeAuth struct {
	configured bool
	password   string
	retryAfter int
	lockNext   int
	failures   int
	resets     int
}

func (f *fakeAuth) Configured() bool { return f.configured }

func (f *fakeAuth) VerifyPassword(password string) bool {
	return f.password != "" && password == f.password
}

func (f *fakeAuth) LoginRetryAfter(ip string) int { return f.retryAfter }

func (f *fakeAuth) RegisterLoginFailure(ip string) int {
	f.failures++
	return f.lockNext
}

func (f *fakeAuth) ResetLoginFailures(ip string) { f.resets++ }

type fakeJWT struct {
	configured bool
	session    string
	rotations  int
	issueErr   error
}

func (f *fakeJWT) Configured() bool { return f.configured }

func (f *fakeJWT) RotateSession() string {
	f.rotations++
	f.session = fmt.Sprintf("session-%d", f.rotations)
	return f.session
}

func (f *fakeJWT) IssueAdminToken(sessionID string) (string, error) {
	if f.issueErr != nil {
		return "", f.issueErr
	}
	return "token-for-" + sessionID, nil
}

func (f *fakeJWT) VerifyAdminToken(jwtToken string) error {
	if strings.HasPrefix(jwtToken, "token-for-"+f.session) {
		return nil
	}
	return errors.New("invalid token")
}

func (f *fakeJWT) ExtractTokenFromHeader(authHeader string) (string, error) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.New("invalid authorization header format")
	}
	return strings.TrimPrefix(authHeader, "Bearer "), nil
}

package handlers

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/staszek-kampania/backend/shared"
)

// CounterHandler fronts the upstream counters. The default responses are
// plain-text integers clamped to >= 0; negative values mean the counter
// was tampered with upstream and get healed by a reset. Clients that ask
// for JSON (format=json / Accept) or the tracking pixel get the upstream
// response passed through untouched.
type CounterHandler struct {
	licznikSvc LicznikServiceInterface
}

const maxAdminDelta = 1_000_000

var (
	deltaRegex = regexp.MustCompile(`^-?\d{1,8}$`)
	pixelRegex = regexp.MustCompile(`(?i)(?:^|[?&])pixel=1(?:&|$)`)
)

func NewCounterHandler(licznikSvc LicznikServiceInterface) *CounterHandler {
	return &CounterHandler{licznikSvc: licznikSvc}
}

func wantsJSONResponse(c *fiber.Ctx) bool {
	query := strings.ToLower(string(c.Request().URI().QueryString()))
	for _, pair := range strings.Split(query, "&") {
		if pair == "format=json" {
			return true
		}
	}
	return strings.Contains(strings.ToLower(c.Get(fiber.HeaderAccept)), "application/json")
}

func rawQuery(c *fiber.Ctx) string {
	return string(c.Request().URI().QueryString())
}

// @Summary Read a counter
// @Description Returns the counter value as plain text. Non-public counters 404 for anonymous callers.
// @Tags counters
// @Produce plain
// @Param counter path string true "Counter name"
// @Success 200 {string} string "42"
// @Router /api/ile/{counter} [get]
func (h *CounterHandler) Get(c *fiber.Ctx) error {
	counter := shared.DecodePathSegment(c.Params("counter"))
	if !shared.IsAllowedCounterName(counter) {
		return shared.ErrBadRequest("invalid_counter")
	}

	admin := shared.IsAdmin(c)

	// Non-public counters do not exist as far as the outside world knows.
	if !admin && !shared.IsAllowedPublicCounterName(counter) {
		return shared.ResponseNotFoundText(c, "not found")
	}

	// The UI hides early vote declarations; hide them on the API too.
	if !admin && counter == shared.CounterVote {
		if n, ok := h.licznikSvc.GetInt(counter); ok && n < shared.MinPublicVoteCount {
			return shared.ResponseNotFoundText(c, "hidden")
		}
	}

	if wantsJSONResponse(c) {
		return h.licznikSvc.Proxy(c, "/ile/"+url.PathEscape(counter), rawQuery(c))
	}

	if !h.licznikSvc.HasAPIKey() {
		return shared.ErrMissingAPIKey()
	}

	up, err := h.licznikSvc.FetchText(withQuery("/ile/"+url.PathEscape(counter), shared.StripKeyQuery(rawQuery(c))))
	if err != nil {
		return shared.ErrUpstreamUnreachable()
	}
	if !up.OK() {
		return shared.ResponseText(c, up.Status, up.Text())
	}

	n, ok := shared.ParseIntText(up.Text())
	if ok && n < 0 {
		// Auto-heal tampered negative counters.
		_ = h.licznikSvc.ResetCounter(counter)
		return shared.ResponseText(c, fiber.StatusOK, "0")
	}
	return shared.ResponseText(c, fiber.StatusOK, formatNonNegative(n, ok))
}

// @Summary Increment a counter
// @Description Adds delta (default 1) and returns the new value. Anonymous callers may only +1 public counters.
// @Tags counters
// @Produce plain
// @Param counter path string true "Counter name"
// @Param delta path string false "Increment, admin only beyond +1"
// @Success 200 {string} string "43"
// @Router /api/dodaj/{counter}/{delta} [get]
func (h *CounterHandler) Add(c *fiber.Ctx) error {
	counter := shared.DecodePathSegment(c.Params("counter"))
	if !shared.IsAllowedCounterName(counter) {
		return shared.ErrBadRequest("invalid_counter")
	}

	admin := shared.IsAdmin(c)

	deltaRaw := c.Params("delta")
	if deltaRaw == "" {
		deltaRaw = "1"
	} else {
		deltaRaw = shared.DecodePathSegment(deltaRaw)
	}
	if !deltaRegex.MatchString(deltaRaw) {
		return shared.ErrBadRequest("invalid_delta")
	}
	delta, err := strconv.ParseInt(deltaRaw, 10, 64)
	if err != nil {
		return shared.ErrBadRequest("invalid_delta")
	}
	// Decrements are never allowed through the public proxy; corrections go
	// through /wyzeruj plus a fresh add.
	if delta < 0 {
		return shared.ErrBadRequest("invalid_delta")
	}

	if !admin {
		if delta != 1 {
			return shared.ErrForbidden("admin_required")
		}
		if !shared.IsAllowedPublicCounterName(counter) {
			return shared.ErrForbidden("admin_required")
		}
	} else if delta > maxAdminDelta {
		return shared.ErrBadRequest("delta_too_large")
	}

	apiPath := fmt.Sprintf("/dodaj/%s/%d", url.PathEscape(counter), delta)
	cleanedQuery := shared.StripKeyQuery(rawQuery(c))

	if wantsJSONResponse(c) || pixelRegex.MatchString(cleanedQuery) {
		return h.licznikSvc.Proxy(c, apiPath, cleanedQuery)
	}

	if !h.licznikSvc.HasAPIKey() {
		return shared.ErrMissingAPIKey()
	}

	up, err := h.licznikSvc.FetchText(withQuery(apiPath, cleanedQuery))
	if err != nil {
		return shared.ErrUpstreamUnreachable()
	}
	if !up.OK() {
		return shared.ResponseText(c, up.Status, up.Text())
	}

	n, ok := shared.ParseIntText(up.Text())
	if ok && n < 0 {
		// Reset the tampered counter, then re-apply this increment.
		_ = h.licznikSvc.ResetCounter(counter)
		up2, err2 := h.licznikSvc.FetchText(withQuery(apiPath, cleanedQuery))
		n2, ok2 := int64(0), false
		if err2 == nil && up2.OK() {
			n2, ok2 = shared.ParseIntText(up2.Text())
		}
		return shared.ResponseText(c, fiber.StatusOK, formatNonNegative(n2, ok2))
	}
	return shared.ResponseText(c, fiber.StatusOK, formatNonNegative(n, ok))
}

// @Summary Reset a counter or basic-DB key to zero
// @Tags counters
// @Produce plain
// @Param name path string true "Counter or key name"
// @Success 200 {string} string "0"
// @Failure 401 {object} map[string]string
// @Router /api/wyzeruj/{name} [get]
func (h *CounterHandler) Reset(c *fiber.Ctx) error {
	name := shared.DecodePathSegment(c.Params("name"))
	if !shared.IsAllowedCounterName(name) && !shared.IsAllowedBasicDbKey(name) {
		return shared.ErrBadRequest("invalid_name")
	}
	return h.licznikSvc.Proxy(c, "/wyzeruj/"+url.PathEscape(name), rawQuery(c))
}

func withQuery(apiPath, query string) string {
	if query == "" {
		return apiPath
	}
	return apiPath + "?" + query
}

func formatNonNegative(n int64, ok bool) string {
	if !ok || n < 0 {
		return "0"
	}
	return strconv.FormatInt(n, 10)
}

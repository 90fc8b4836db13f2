package shared

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// AppError carries the machine-readable error code and HTTP status for the
// API error taxonomy. Handlers return these; the Fiber error handler turns
// them into the JSON wire shape {"error": <code>, ...}.
type AppError struct {
	StatusCode int
	Code       string
	Hint       string
	RetryAfter int
	Extra      map[string]interface{}
}

func (e *AppError) Error() string {
	return e.Code
}

func NewAppError(statusCode int, code string) *AppError {
	return &AppError{StatusCode: statusCode, Code: code}
}

// WithHint attaches an operator hint, sent as an x-hint header.
func (e *AppError) WithHint(hint string) *AppError {
	e.Hint = hint
	return e
}

// WithRetryAfter attaches a Retry-After interval in seconds; it is also
// echoed in the JSON body as retry_after.
func (e *AppError) WithRetryAfter(seconds int) *AppError {
	if seconds < 1 {
		seconds = 1
	}
	e.RetryAfter = seconds
	return e
}

func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Extra == nil {
		e.Extra = map[string]interface{}{}
	}
	e.Extra[key] = value
	return e
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func ErrBadRequest(code string) *AppError {
	return NewAppError(http.StatusBadRequest, code)
}

func ErrUnauthorized(code string) *AppError {
	return NewAppError(http.StatusUnauthorized, code)
}

func ErrForbidden(code string) *AppError {
	return NewAppError(http.StatusForbidden, code)
}

func ErrPayloadTooLarge() *AppError {
	return NewAppError(http.StatusRequestEntityTooLarge, "payload_too_large")
}

func ErrRateLimited(scope string, retryAfter int) *AppError {
	return NewAppError(http.StatusTooManyRequests, "rate_limited").
		WithField("scope", scope).
		WithRetryAfter(retryAfter)
}

func ErrUpstreamUnreachable() *AppError {
	return NewAppError(http.StatusBadGateway, "upstream_unreachable")
}

func ErrMissingAPIKey() *AppError {
	return NewAppError(http.StatusInternalServerError, "missing_api_key").
		WithHint("Set LICZNIK_API_KEY (or API_KEY) in backend env.")
}

// ErrorHandler is the Fiber app-level error handler. AppErrors become the
// {"error": code, ...} wire shape; anything else is hidden behind a
// generic code so internals never leak.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := GetAppError(err); ok {
		payload := fiber.Map{"error": appErr.Code}
		for k, v := range appErr.Extra {
			payload[k] = v
		}
		if appErr.RetryAfter > 0 {
			payload["retry_after"] = appErr.RetryAfter
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(appErr.RetryAfter))
		}
		if appErr.Hint != "" {
			c.Set("x-hint", appErr.Hint)
		}
		return ResponseJSON(c, appErr.StatusCode, payload)
	}

	status := http.StatusInternalServerError
	code := "internal_error"
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		switch status {
		case http.StatusRequestEntityTooLarge:
			code = "payload_too_large"
		case http.StatusNotFound:
			code = "not_found"
		case http.StatusMethodNotAllowed:
			code = "method_not_allowed"
		default:
			if status < 500 {
				code = "bad_request"
			}
		}
	}
	if status >= 500 {
		log.WithError(err).WithField("path", c.Path()).Error("Unhandled error")
	}
	return ResponseJSON(c, status, fiber.Map{"error": code})
}

package services

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/staszek-kampania/backend/model"
	"github.com/staszek-kampania/backend/shared"
)

// LicznikService talks to the upstream counter / basic-DB service
// ("licznik"). The API key is injected server-side on every call and is
// stripped from any query string a client sends, so it can never leak
// through the proxy in either direction.
type LicznikService struct {
	context.DefaultService

	httpClient *http.Client
	baseURL    string
	apiKey     string
}

const LICZNIK_SVC = "licznik_svc"

const defaultLicznikBaseURL = "http://licznik-794170040235.europe-central2.run.app"

func (svc LicznikService) Id() string {
	return LICZNIK_SVC
}

func (svc *LicznikService) Configure(ctx *context.Context) error {
	svc.httpClient = &http.Client{
		Timeout: 10 * time.Second,
	}

	base := strings.TrimSpace(os.Getenv("LICZNIK_BASE_URL"))
	if base == "" {
		base = defaultLicznikBaseURL
	}
	svc.baseURL = strings.TrimRight(base, "/")

	apiKey := strings.TrimSpace(os.Getenv("LICZNIK_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("API_KEY"))
	}
	svc.apiKey = apiKey

	return svc.DefaultService.Configure(ctx)
}

func (svc *LicznikService) Start() error {
	if svc.apiKey == "" {
		log.Warn("Missing LICZNIK_API_KEY (or API_KEY). Counters/forum will not work.")
	}
	return nil
}

func (svc *LicznikService) HasAPIKey() bool {
	return svc.apiKey != ""
}

func (svc *LicznikService) BaseURL() string {
	return svc.baseURL
}

// FetchText GETs an upstream path (already escaped, with optional query)
// with the server-side key attached.
func (svc *LicznikService) FetchText(apiPath string) (*model.UpstreamResult, error) {
	target, err := svc.buildTargetURL(apiPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", svc.apiKey)

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		upstreamErrorsTotal.WithLabelValues("licznik").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		body = nil
	}

	return &model.UpstreamResult{
		Status:      resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (svc *LicznikService) buildTargetURL(apiPath string) (string, error) {
	target, err := url.Parse(svc.baseURL + apiPath)
	if err != nil {
		return "", fmt.Errorf("invalid upstream path: %v", err)
	}
	if svc.apiKey != "" {
		query := target.Query()
		query.Set("key", svc.apiKey)
		target.RawQuery = query.Encode()
	}
	return target.String(), nil
}

// GetInt reads a counter; the second return is false when the upstream is
// unreachable, errored or returned a non-integer.
func (svc *LicznikService) GetInt(counterName string) (int64, bool) {
	res, err := svc.FetchText("/ile/" + url.PathEscape(counterName))
	if err != nil || !res.OK() {
		return 0, false
	}
	return shared.ParseIntText(res.Text())
}

// AddInt increments a counter by delta and returns the new value.
func (svc *LicznikService) AddInt(counterName string, delta int64) (int64, bool) {
	res, err := svc.FetchText(fmt.Sprintf("/dodaj/%s/%d", url.PathEscape(counterName), delta))
	if err != nil || !res.OK() {
		return 0, false
	}
	return shared.ParseIntText(res.Text())
}

// ResetCounter zeroes a counter upstream. Used by the admin endpoint and by
// the negative-counter auto-heal.
func (svc *LicznikService) ResetCounter(name string) error {
	res, err := svc.FetchText("/wyzeruj/" + url.PathEscape(name))
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("upstream reset returned %d", res.Status)
	}
	return nil
}

// Proxy forwards the current request to the same path upstream and replays
// the upstream response verbatim (status, content type, body).
func (svc *LicznikService) Proxy(c *fiber.Ctx, apiPath string, rawQuery string) error {
	if svc.apiKey == "" {
		return shared.ErrMissingAPIKey()
	}

	cleaned := shared.StripKeyQuery(rawQuery)
	pathWithQuery := apiPath
	if cleaned != "" {
		pathWithQuery += "?" + cleaned
	}
	target, err := svc.buildTargetURL(pathWithQuery)
	if err != nil {
		return shared.ErrBadRequest("invalid_path")
	}

	method := c.Method()
	var body io.Reader
	if method != fiber.MethodGet && method != fiber.MethodHead && len(c.Body()) > 0 {
		body = bytes.NewReader(c.Body())
	}

	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return shared.ErrBadRequest("invalid_path")
	}
	req.Header.Set("x-api-key", svc.apiKey)
	if ct := c.Get(fiber.HeaderContentType); ct != "" {
		req.Header.Set(fiber.HeaderContentType, ct)
	}

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		upstreamErrorsTotal.WithLabelValues("licznik").Inc()
		log.WithError(err).Error("Proxy error")
		return shared.ErrUpstreamUnreachable()
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	c.Set(fiber.HeaderCacheControl, "no-store")
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		c.Set(fiber.HeaderContentType, ct)
	}
	return c.Status(resp.StatusCode).Send(respBody)
}

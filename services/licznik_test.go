package services

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staszek-kampania/backend/shared"
)

func newTestLicznikService(baseURL string) *LicznikService {
	return &LicznikService{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		apiKey:     "test-key",
	}
}

func TestFetchTextInjectsAPIKey(t *testing.T) {
	var gotKey, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotHeader = r.Header.Get("x-api-key")
		_, _ = io.WriteString(w, "13")
	}))
	defer srv.Close()

	svc := newTestLicznikService(srv.URL)
	res, err := svc.FetchText("/ile/staszek-views")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "13", res.Text())
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "test-key", gotHeader)
}

func TestGetIntAndAddInt(t *testing.T) {
	counters := map[string]string{"/ile/staszek-views": "10", "/dodaj/staszek-views/3": "13"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := counters[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	svc := newTestLicznikService(srv.URL)

	n, ok := svc.GetInt("staszek-views")
	require.True(t, ok)
	assert.Equal(t, int64(10), n)

	n, ok = svc.AddInt("staszek-views", 3)
	require.True(t, ok)
	assert.Equal(t, int64(13), n)

	_, ok = svc.GetInt("missing-counter")
	assert.False(t, ok)
}

func TestGetIntUnreachableUpstream(t *testing.T) {
	svc := newTestLicznikService("http://127.0.0.1:1")
	_, ok := svc.GetInt("staszek-views")
	assert.False(t, ok)
}

func TestProxyReplaysUpstreamAndStripsClientKey(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	svc := newTestLicznikService(srv.URL)

	app := fiber.New(fiber.Config{ErrorHandler: shared.ErrorHandler})
	app.Get("/ile/:counter", func(c *fiber.Ctx) error {
		return svc.Proxy(c, "/ile/staszek-views", string(c.Request().URI().QueryString()))
	})

	req := httptest.NewRequest(http.MethodGet, "/ile/staszek-views?key=stolen&format=json", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, `{"ok":true}`, string(body))

	// The client key never reaches upstream; the server key does.
	assert.Contains(t, gotQuery, "key=test-key")
	assert.NotContains(t, gotQuery, "stolen")
	assert.Contains(t, gotQuery, "format=json")
}

func TestProxyWithoutAPIKey(t *testing.T) {
	svc := &LicznikService{httpClient: &http.Client{}, baseURL: "http://example.invalid"}

	app := fiber.New(fiber.Config{ErrorHandler: shared.ErrorHandler})
	app.Get("/x", func(c *fiber.Ctx) error {
		return svc.Proxy(c, "/x", "")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("x-hint"))
}

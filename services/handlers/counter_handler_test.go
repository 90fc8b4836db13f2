package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staszek-kampania/backend/model"
)

func newCounterApp(licznik *fakeLicznik) *fiber.App {
	h := NewCounterHandler(licznik)
	return newAPIApp(func(api fiber.Router) {
		api.Get("/ile/:counter", h.Get)
		api.Get("/dodaj/:counter", h.Add)
		api.Get("/dodaj/:counter/:delta", h.Add)
		api.Get("/wyzeruj/:name", h.Reset)
	})
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestCounterGetRejectsInvalidName(t *testing.T) {
	app := newCounterApp(newFakeLicznik())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ile/nie%20ma", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_counter", decodeJSONBody(resp)["error"])
}

func TestCounterGetHidesPrivateCountersFromAnonymous(t *testing.T) {
	app := newCounterApp(newFakeLicznik())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ile/staszek-secret", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", bodyString(t, resp))
}

func TestCounterGetAdminSeesPrivateCounters(t *testing.T) {
	licznik := newFakeLicznik()
	licznik.fetchResults = []*model.UpstreamResult{textResult(http.StatusOK, "17")}
	app := newCounterApp(licznik)

	resp, err := app.Test(asAdmin(httptest.NewRequest(http.MethodGet, "/api/ile/staszek-secret", nil)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "17", bodyString(t, resp))
}

func TestCounterGetHidesEarlyVoteCount(t *testing.T) {
	licznik := newFakeLicznik()
	licznik.counters["staszek-vote"] = 19
	app := newCounterApp(licznik)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ile/staszek-vote", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "hidden", bodyString(t, resp))
}

func TestCounterGetShowsVoteCountPastThreshold(t *testing.T) {
	licznik := newFakeLicznik()
	licznik.counters["staszek-vote"] = 20
	licznik.fetchResults = []*model.UpstreamResult{textResult(http.StatusOK, "20")}
	app := newCounterApp(licznik)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ile/staszek-vote", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "20", bodyString(t, resp))
}

func TestCounterGetFormatJSONProxies(t *testing.T) {
	licznik := newFakeLicznik()
	app := newCounterApp(licznik)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ile/staszek-views?format=json", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "proxied:/ile/staszek-views", bodyString(t, resp))
}

func TestCounterGetAcceptJSONProxies(t *testing.T) {
	licznik := newFakeLicznik()
	app := newCounterApp(licznik)

	req := httptest.NewRequest(http.MethodGet, "/api/ile/staszek-views", nil)
	req.Header.Set(fiber.HeaderAccept, "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "proxied:/ile/staszek-views", bodyString(t, resp))
}

func TestCounterGetWithoutAPIKey(t *testing.T) {
	licznik := newFakeLicznik()
	licznik.hasKey = false
	app := newCounterApp(licznik)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ile/staszek-views", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "missing_api_key", decodeJSONBody(resp)["error"])
	assert.NotEmpty(t, resp.Header.Get("x-hint"))
}

func TestCounterGetHealsNegativeValue(t *testing.T) {
	licznik := newFakeLicznik()
	licznik.fetchResults = []*model.UpstreamResult{textResult(http.StatusOK, "-42")}
	app := newCounterApp(licznik)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ile/staszek-views", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0", bodyString(t, resp))
	assert.Equal(t, []string{"staszek-views"}, licznik.resets)
}

func TestCounterGetReplaysUpstreamError(t *testing.T) {
	licznik := newFakeLicznik()
	licznik.fetchResults = []*model.UpstreamResult{textResult(http.StatusBadGateway, "upstream down")}
	app := newCounterApp(licznik)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ile/staszek-views", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "upstream down", bodyString(t, resp))
}

func TestCounterAddDefaultsToPlusOne(t *testing.T) {
	licznik := newFakeLicznik()
	licznik.fetchResults = []*model.UpstreamResult{textResult(http.StatusOK, "8")}
	app := newCounterApp(licznik)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dodaj/staszek-views", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "8", bodyString(t, resp))

	require.Len(t, licznik.fetchedPaths(), 1)
	assert.Equal(t, "/dodaj/staszek-views/1", licznik.fetchedPaths()[0])
}

func TestCounterAddRejectsMalformedDelta(t *testing.T) {
	app := newCounterApp(newFakeLicznik())

	for _, delta := range []string{"abc", "-2", "123456789", "1.5"} {
		resp, err := app.Test(asAdmin(httptest.NewRequest(http.MethodGet, "/api/dodaj/staszek-views/"+delta, nil)))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, delta)
		assert.Equal(t, "invalid_delta", decodeJSONBody(resp)["error"], delta)
	}
}

func TestCounterAddAnonymousDeltaRequiresAdmin(t *testing.T) {
	app := newCounterApp(newFakeLicznik())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dodaj/staszek-views/5", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "admin_required", decodeJSONBody(resp)["error"])
}

func TestCounterAddAnonymousPrivateCounterRequiresAdmin(t *testing.T) {
	app := newCounterApp(newFakeLicznik())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dodaj/staszek-secret", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "admin_required", decodeJSONBody(resp)["error"])
}

func TestCounterAddAdminDeltaCapped(t *testing.T) {
	app := newCounterApp(newFakeLicznik())

	resp, err := app.Test(asAdmin(httptest.NewRequest(http.MethodGet, "/api/dodaj/staszek-views/1000001", nil)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "delta_too_large", decodeJSONBody(resp)["error"])
}

func TestCounterAddAdminLargeDeltaWithinCap(t *testing.T) {
	licznik := newFakeLicznik()
	licznik.fetchResults = []*model.UpstreamResult{textResult(http.StatusOK, "1000000")}
	app := newCounterApp(licznik)

	resp, err := app.Test(asAdmin(httptest.NewRequest(http.MethodGet, "/api/dodaj/staszek-views/1000000", nil)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1000000", bodyString(t, resp))
}

func TestCounterAddHealsNegativeThenRetries(t *testing.T) {
	licznik := newFakeLicznik()
	licznik.fetchResults = []*model.UpstreamResult{
		textResult(http.StatusOK, "-4"),
		textResult(http.StatusOK, "1"),
	}
	app := newCounterApp(licznik)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dodaj/staszek-views", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", bodyString(t, resp))

	assert.Equal(t, []string{"staszek-views"}, licznik.resets)
	assert.Len(t, licznik.fetchedPaths(), 2)
}

func TestCounterAddPixelPassthrough(t *testing.T) {
	licznik := newFakeLicznik()
	app := newCounterApp(licznik)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dodaj/staszek-views?pixel=1", nil))
	require.NoError(t, err)
	assert.Equal(t, "proxied:/dodaj/staszek-views/1", bodyString(t, resp))
}

func TestCounterAddStripsClientKeyFromQuery(t *testing.T) {
	licznik := newFakeLicznik()
	licznik.fetchResults = []*model.UpstreamResult{textResult(http.StatusOK, "2")}
	app := newCounterApp(licznik)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dodaj/staszek-views?key=stolen&x=1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	paths := licznik.fetchedPaths()
	require.Len(t, paths, 1)
	assert.NotContains(t, paths[0], "stolen")
	assert.Contains(t, paths[0], "x=1")
}

func TestCounterResetValidatesName(t *testing.T) {
	licznik := newFakeLicznik()
	app := newCounterApp(licznik)

	resp, err := app.Test(asAdmin(httptest.NewRequest(http.MethodGet, "/api/wyzeruj/nie%20ma", nil)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_name", decodeJSONBody(resp)["error"])

	resp, err = app.Test(asAdmin(httptest.NewRequest(http.MethodGet, "/api/wyzeruj/staszek-views", nil)))
	require.NoError(t, err)
	assert.Equal(t, "proxied:/wyzeruj/staszek-views", bodyString(t, resp))

	// Basic-DB list keys may be reset too.
	resp, err = app.Test(asAdmin(httptest.NewRequest(http.MethodGet, "/api/wyzeruj/staszek-forum", nil)))
	require.NoError(t, err)
	assert.Equal(t, "proxied:/wyzeruj/staszek-forum", bodyString(t, resp))
}

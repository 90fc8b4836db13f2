package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAdminDefaultsToFalse(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	var got bool
	app.Get("/", func(c *fiber.Ctx) error {
		got = IsAdmin(c)
		return c.SendString("ok")
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestIsAdminReadsLocal(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	var got bool
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals(IsAdminKey, true)
		got = IsAdmin(c)
		return c.SendString("ok")
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, got)
}

func TestClientIPFallsBackToRequest(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = ClientIP(c)
		return c.SendString("ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	_, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", got)
}

func TestClientIPPrefersLocal(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals(ClientIPKey, "198.51.100.7")
		got = ClientIP(c)
		return c.SendString("ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	_, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.7", got)
}

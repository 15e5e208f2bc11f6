package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Islomov1/eit-lc-crm/internal/config"
)

func newAdminApp(secret string) *fiber.App {
	app := fiber.New()
	app.Get("/api/admin/ping", AdminRequired(&config.Config{AdminSecret: secret}), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	return app
}

func TestAdminRequiredAcceptsHeaderAndBearer(t *testing.T) {
	app := newAdminApp("s3cret")

	req := httptest.NewRequest("GET", "/api/admin/ping", nil)
	req.Header.Set("X-Admin-Secret", "s3cret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminRequiredRejectsBadOrMissingSecret(t *testing.T) {
	app := newAdminApp("s3cret")

	req := httptest.NewRequest("GET", "/api/admin/ping", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/admin/ping", nil)
	req.Header.Set("X-Admin-Secret", "nope")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRequiredUnconfigured(t *testing.T) {
	app := newAdminApp("")

	req := httptest.NewRequest("GET", "/api/admin/ping", nil)
	req.Header.Set("X-Admin-Secret", "anything")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

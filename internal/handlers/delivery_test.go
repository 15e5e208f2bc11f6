package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRequiresCronSecret(t *testing.T) {
	handler := NewDeliveryHandler(nil, nil, "cron-secret", 10)
	app := fiber.New()
	app.Post("/api/telegram/retry-sweep", handler.Sweep)

	req := httptest.NewRequest("POST", "/api/telegram/retry-sweep", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("POST", "/api/telegram/retry-sweep", nil)
	req.Header.Set("X-Cron-Secret", "wrong")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSweepRejectsAllWhenUnconfigured(t *testing.T) {
	handler := NewDeliveryHandler(nil, nil, "", 10)
	app := fiber.New()
	app.Post("/api/telegram/retry-sweep", handler.Sweep)

	req := httptest.NewRequest("POST", "/api/telegram/retry-sweep", nil)
	req.Header.Set("X-Cron-Secret", "")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

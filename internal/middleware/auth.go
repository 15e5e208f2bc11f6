package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Islomov1/eit-lc-crm/internal/config"
)

// AdminRequired middleware protects the administrative CRM routes with the
// shared admin secret. The secret is accepted either as X-Admin-Secret or as
// a bearer token.
func AdminRequired(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminSecret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"success": false,
				"message": "Admin access is not configured",
			})
		}

		provided := c.Get("X-Admin-Secret")
		if provided == "" {
			authHeader := c.Get("Authorization")
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				provided = parts[1]
			}
		}

		if provided == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Missing admin credentials",
			})
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.AdminSecret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid admin credentials",
			})
		}

		return c.Next()
	}
}

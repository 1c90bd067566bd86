package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/backend/internal/config"
)

// APIKeyAuth accepts the key in X-Api-Key or as a Bearer token. An empty
// configured key disables the check.
func APIKeyAuth(cfg config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := cfg.APIKey
		if apiKey == "" {
			return c.Next()
		}

		headerToken := c.Get("X-Api-Key")
		if headerToken == "" {
			auth := c.Get("Authorization")
			const prefix = "Bearer "
			if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
				headerToken = auth[len(prefix):]
			}
		}

		if subtle.ConstantTimeCompare([]byte(headerToken), []byte(apiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		return c.Next()
	}
}

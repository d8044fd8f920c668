package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

const AdminTokenHeader = "X-Admin-Token"

// AdminAuth guards the management API with a shared token. When no token is
// configured every request is rejected rather than left open.
func AdminAuth(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get(AdminTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "access denied",
			})
		}
		return c.Next()
	}
}

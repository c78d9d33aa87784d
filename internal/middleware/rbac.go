package middleware

import (
	"strings"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/httpx"
	"github.com/gofiber/fiber/v2"
)

// RequireRole gates a route on the account role carried in the token.
func RequireRole(role string) fiber.Handler {
	role = strings.ToLower(strings.TrimSpace(role))
	return func(c *fiber.Ctx) error {
		userRole, _ := c.Locals("role").(string)
		if strings.ToLower(userRole) != role {
			return httpx.Forbidden(c, "forbidden", "Permissão insuficiente")
		}
		return c.Next()
	}
}

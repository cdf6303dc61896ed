package middleware

import (
	"log"
	"strings"

	"fiorella/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthRequired.
const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
)

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals(LocalUserID, claims["user_id"])
		c.Locals(LocalUsername, claims["username"])
		return c.Next()
	}
}

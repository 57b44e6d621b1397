package middleware

import (
	"context"

	"portal-chat/logger"

	"github.com/casbin/casbin/v2"
	"github.com/gofiber/fiber/v2"
)

// RoleLookup resolves the portal role of a profile.
type RoleLookup interface {
	Role(ctx context.Context, userID string) (string, error)
}

func RBAC(enforcer *casbin.Enforcer, roles RoleLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)

		role, err := roles.Role(c.UserContext(), userID)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("resolve role")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"message": "Unauthorized",
				"data":    nil,
			})
		}

		// Casbin enforces policy
		accepted, err := enforcer.Enforce(role, c.Path(), c.Method())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":  "error",
				"message": "Internal server error",
				"data":    nil,
			})
		}

		if !accepted {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"message": "Unauthorized",
				"data":    nil,
			})
		}

		c.Locals(localRole, role)
		return c.Next()
	}
}

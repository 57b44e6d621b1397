package middleware

import (
	"errors"

	"portal-chat/utils"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	localUser   = "user"
	localUserID = "user_id"
	localRole   = "role"
)

// JWT verifies access tokens issued by the auth service.
func JWT(key []byte) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{
			JWTAlg: utils.SigningMethod().Alg(),
			Key:    key,
		},
		ContextKey: localUser,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals(localUser).(*jwt.Token)
			if !ok {
				return unauthorized(c)
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c)
			}
			meta, err := utils.MetadataFromClaims(claims)
			if err != nil {
				return unauthorized(c)
			}
			c.Locals(localUserID, meta.UserID)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				return c.Status(fiber.StatusBadRequest).
					JSON(fiber.Map{
						"status":  "error",
						"message": "Missing or malformed JWT",
						"data":    nil,
					})
			}
			return unauthorized(c)
		},
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid or expired JWT",
			"data":    nil,
		})
}

// UserID returns the profile id of the authenticated caller.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// Role returns the caller's role once RBAC has run.
func Role(c *fiber.Ctx) string {
	role, _ := c.Locals(localRole).(string)
	return role
}

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/foty/internal/config"
	"github.com/example/foty/internal/models"
	"github.com/example/foty/internal/utils"
)

const (
	userContextKey = "currentUserID"
	roleContextKey = "currentUserRole"
)

// Protect validates the bearer JWT and loads the authenticated user ID and
// role into the request context.
func Protect(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role, err := bearerIdentity(cfg, c)
		if err != nil {
			return err
		}

		c.Locals(userContextKey, userID)
		c.Locals(roleContextKey, role)
		return c.Next()
	}
}

// AdminOnly rejects requests from non-admin users. Must run after Protect.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, ok := c.Locals(roleContextKey).(string); !ok || role != models.RoleAdmin {
			return fiber.NewError(fiber.StatusForbidden, "not authorized as an admin")
		}
		return c.Next()
	}
}

// OptionalAuth loads the user identity when a valid bearer token is present
// and proceeds anonymously otherwise. It never rejects a request.
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID, role, err := bearerIdentity(cfg, c); err == nil {
			c.Locals(userContextKey, userID)
			c.Locals(roleContextKey, role)
		}
		return c.Next()
	}
}

func bearerIdentity(cfg *config.Config, c *fiber.Ctx) (uuid.UUID, string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return uuid.Nil, "", fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return uuid.Nil, "", fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
	}

	userID, role, err := utils.ParseToken(cfg.JWTSecret, parts[1])
	if err != nil {
		return uuid.Nil, "", fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	return userID, role, nil
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

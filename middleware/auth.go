package middleware

import (
	"context"
	"errors"
	"strings"

	"funplay-claim-service/locale"
	"funplay-claim-service/logger"
	"funplay-claim-service/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	UserIDKey = "user_id"
	UserKey   = "user"
)

// SessionValidator resolves a bearer token to a user. *services.AuthServiceClient implements it.
type SessionValidator interface {
	ValidateToken(ctx context.Context, accessToken string) (*services.AuthUser, error)
}

// SessionAuthMiddleware validates the caller's bearer token and stores the user id
// and the resolved *services.AuthUser in Locals for the handlers.
func SessionAuthMiddleware(validator SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == header || token == "" {
			return reject(c, fiber.StatusUnauthorized, locale.Unauthenticated)
		}

		user, err := validator.ValidateToken(c.UserContext(), token)
		if err != nil {
			if !errors.Is(err, services.ErrUnauthenticated) {
				logger.Error("session validation failed", zap.String("path", c.Path()), zap.Error(err))
			}
			return reject(c, fiber.StatusUnauthorized, locale.Unauthenticated)
		}

		c.Locals(UserIDKey, user.ID)
		c.Locals(UserKey, user)
		return c.Next()
	}
}

// AdminOnly must run after SessionAuthMiddleware.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user := CurrentUser(c); user != nil && user.HasRole("admin") {
			return c.Next()
		}
		logger.Warn("admin route refused", zap.String("user_id", UserID(c)), zap.String("path", c.Path()))
		return reject(c, fiber.StatusForbidden, locale.Forbidden)
	}
}

// CurrentUser returns nil when no session was validated.
func CurrentUser(c *fiber.Ctx) *services.AuthUser {
	user, _ := c.Locals(UserKey).(*services.AuthUser)
	return user
}

func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}

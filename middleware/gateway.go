package middleware

import (
	"crypto/subtle"

	"funplay-claim-service/locale"
	"funplay-claim-service/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const ServiceTokenHeader = "X-Service-Token"

// GatewayAuthMiddleware only lets through requests that carry the gateway's service token.
// An empty expected token disables the check.
func GatewayAuthMiddleware(expectedToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if expectedToken == "" {
			return c.Next()
		}

		token := c.Get(ServiceTokenHeader)
		if token == "" {
			logger.Warn("gateway token missing", zap.String("path", c.Path()))
			return reject(c, fiber.StatusUnauthorized, locale.Unauthenticated)
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			logger.Warn("gateway token invalid", zap.String("path", c.Path()), zap.String("ip", c.IP()))
			return reject(c, fiber.StatusUnauthorized, locale.Unauthenticated)
		}
		return c.Next()
	}
}

func reject(c *fiber.Ctx, status int, code string) error {
	p := locale.Printer(c.Get(fiber.HeaderAcceptLanguage))
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   code,
		"message": locale.Message(p, code),
	})
}

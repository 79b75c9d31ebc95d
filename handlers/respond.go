package handlers

import (
	"errors"

	"funplay-claim-service/locale"
	"funplay-claim-service/services"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/message"
)

func printer(c *fiber.Ctx) *message.Printer {
	return locale.Printer(c.Get(fiber.HeaderAcceptLanguage))
}

func fail(c *fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   code,
		"message": locale.Message(printer(c), code),
	})
}

// classify maps a service error onto an HTTP status and a message key.
// Order matters: transfer errors may also wrap a persistence or configuration cause.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidAddress):
		return fiber.StatusBadRequest, locale.InvalidAddress
	case errors.Is(err, services.ErrNothingToClaim):
		return fiber.StatusBadRequest, locale.NothingToClaim
	case errors.Is(err, services.ErrClaimInProgress):
		return fiber.StatusBadRequest, locale.ClaimInProgress
	case errors.Is(err, services.ErrInsufficientPoolBalance):
		return fiber.StatusServiceUnavailable, locale.InsufficientPool
	case errors.Is(err, services.ErrConfiguration):
		return fiber.StatusInternalServerError, locale.Configuration
	case errors.Is(err, services.ErrPersistence):
		return fiber.StatusInternalServerError, locale.Persistence
	case errors.Is(err, services.ErrTransferFailed):
		return fiber.StatusInternalServerError, locale.TransferFailed
	case errors.Is(err, services.ErrClaimNotFound):
		return fiber.StatusNotFound, locale.ClaimNotFound
	default:
		return fiber.StatusInternalServerError, locale.Internal
	}
}

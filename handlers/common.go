package handlers

import (
	"errors"

	"clinic-partner-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// statusFor maps domain errors onto HTTP statuses so every route reports
// the taxonomy the same way.
func statusFor(err error) int {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidRule):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrCouponNotLinked):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrPartnerInactive),
		errors.Is(err, services.ErrNoPendingEarnings),
		errors.Is(err, services.ErrCouponTaken),
		errors.Is(err, services.ErrDuplicatePayoutRequest),
		errors.Is(err, services.ErrConcurrencyConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, msg string, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": msg,
		"cause": err.Error(),
	})
}

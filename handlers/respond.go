package handlers

import (
	"errors"

	"ctf-learning-platform/services"

	"github.com/gofiber/fiber/v2"
)

// respondError maps the service error taxonomy onto HTTP statuses.
// Transient store failures return 503 so clients know the submission is
// safe to retry with the same inputs.
func respondError(c *fiber.Ctx, err error, msg string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": msg, "cause": err.Error(),
		})
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg, "cause": err.Error(),
		})
	case errors.Is(err, services.ErrTransient):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": msg, "cause": "temporary storage failure, retry the request",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": msg, "cause": err.Error(),
		})
	}
}

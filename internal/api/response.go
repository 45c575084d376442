package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"backoffice-mcp/internal/impact"
	"backoffice-mcp/internal/ledger"
)

func SuccessResponse(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	var errMsg interface{}
	if err != nil {
		errMsg = err.Error()
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   errMsg,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return fiber.StatusNotFound, "Event not found"
	case errors.Is(err, ledger.ErrInvalidEvent):
		return fiber.StatusBadRequest, "Invalid event"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "Ledger did not answer in time"
	case errors.Is(err, impact.ErrDataSourceUnavailable):
		return fiber.StatusServiceUnavailable, "Ledger unavailable"
	default:
		return fiber.StatusInternalServerError, "Internal error"
	}
}

func failure(c *fiber.Ctx, err error) error {
	status, message := statusFor(err)
	return ErrorResponse(c, status, message, err)
}

// Package response holds the HTTP response envelope helpers.
package response

import (
	apperrors "qrpay/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

// DomainError maps a service error to its HTTP status by error kind.
// Internal detail (wrapped causes) stays out of the response body.
func DomainError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal error"

	switch apperrors.Kind(err) {
	case apperrors.CodeValidation:
		status, message = fiber.StatusBadRequest, err.Error()
	case apperrors.CodeSignature:
		// Deliberately uninformative.
		return Error(c, fiber.StatusUnauthorized, "invalid signature")
	case apperrors.CodeNotFound:
		status, message = fiber.StatusNotFound, err.Error()
	case apperrors.CodeInvalidState, apperrors.CodeConflict:
		status, message = fiber.StatusConflict, err.Error()
	case apperrors.CodeGateway:
		status, message = fiber.StatusBadGateway, "payment gateway error"
	}
	return Error(c, status, message)
}

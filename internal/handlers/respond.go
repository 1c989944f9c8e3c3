package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"hanythrift/internal/apperr"
)

// currentUserID reads the authenticated user id placed by the JWT middleware.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// respondError maps a service error to its HTTP status and stable code.
func respondError(c *fiber.Ctx, msg string, err error) error {
	return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{
		"message": msg,
		"code":    apperr.Code(err),
		"error":   err.Error(),
	})
}

// respondValidationErrors renders field-level validation failures.
func respondValidationErrors(c *fiber.Ctx, err error) error {
	validationErrors := err.(validator.ValidationErrors)
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"code":    "VALIDATION",
		"errors":  errorMessages,
	})
}

package utils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"aistudio/internal/apperr"
)

// RespondWithError sends a JSON error response.
func RespondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

// RespondWithAppError maps a taxonomy error to its HTTP status. Unknown
// errors become a generic 500 without leaking internals.
func RespondWithAppError(c *fiber.Ctx, err error) error {
	var sc apperr.StatusCoder
	if errors.As(err, &sc) {
		return RespondWithError(c, sc.StatusCode(), sc.Error())
	}
	return RespondWithError(c, fiber.StatusInternalServerError, "Internal Server Error")
}

// FormatValidationErrors formats validation errors from validator/v10.
func FormatValidationErrors(err error) []string {
	var out []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			element := fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
			if fe.Param() != "" {
				element = fmt.Sprintf("%s (value: %s)", element, fe.Param())
			}
			out = append(out, element)
		}
	}
	return out
}

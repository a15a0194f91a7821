package serverutils

import (
	"errors"

	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindConflict:
		return fiber.StatusConflict
	case apperror.KindSynthesis:
		return fiber.StatusBadGateway
	case apperror.KindConfiguration:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware renders errors returned by later handlers as JSON.
// Internal details are logged, never returned.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := StatusFor(err)
		body := ErrorBody{
			Success: false,
			Code:    status,
			Message: err.Error(),
		}

		var fe *fiber.Error
		var appErr *apperror.Error
		switch {
		case errors.As(err, &fe):
		case errors.As(err, &appErr):
			body.Kind = string(appErr.Kind)
			body.Message = appErr.Message
		default:
			body.Kind = string(apperror.KindInternal)
		}

		var fields *FieldErrors
		if errors.As(err, &fields) {
			body.Fields = fields.Fields
		}

		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"path":   ctx.Path(),
				"status": status,
				"error":  err.Error(),
			})
			if status == fiber.StatusInternalServerError {
				body.Message = "Internal server error"
			}
		}

		return ctx.Status(status).JSON(body)
	}
}

package serverutils

import (
	"errors"

	"provider-marketplace-be/internal/pkg/apperror"
	"provider-marketplace-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders AppErrors with their status and message. Anything else
// is logged and reported as a generic 500.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		if appErr, ok := apperror.As(err); ok {
			if appErr.Status >= fiber.StatusInternalServerError {
				log.Error("HTTP", "Request failed", map[string]interface{}{
					"method": ctx.Method(),
					"path":   ctx.Path(),
					"error":  err.Error(),
				})
			}
			return ctx.Status(appErr.Status).JSON(ErrorResponse(appErr.Status, appErr.Message))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		log.Error("HTTP", "Unhandled error", map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"error":  err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(500, "Internal server error"))
	}
}

// ErrorHandlerMiddleware renders errors returned by downstream handlers so
// middleware registered earlier (tracing) observes the final status.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	handle := ErrorHandler(log)
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return handle(ctx, err)
		}
		return nil
	}
}

package serverutils

import (
	"errors"

	"claims-agent-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts unhandled errors into the standard
// envelope and logs them with request context.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}

		log.Error("http", "request failed", map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"code":   code,
			"error":  err.Error(),
		})

		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}

package middleware

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
)

// Recover turns a panic into INTERNAL_ERROR, rendered by the app's ErrorHandler.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					slog.Any("panic", r),
					slog.String("path", c.Path()),
					slog.String("method", c.Method()),
					slog.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
				)

				err = domain.ErrInternal.WithError(fmt.Errorf("panic: %v", r))
			}
		}()
		return c.Next()
	}
}

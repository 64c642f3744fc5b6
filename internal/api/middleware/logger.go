package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HTTPObserver receives one call per completed request.
type HTTPObserver interface {
	ObserveHTTP(path, method, status string)
}

func Logger(logger *slog.Logger, observers ...HTTPObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Process request
		err := c.Next()

		// Render errors here so the logged status is the one sent
		if err != nil {
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		// Calculate latency
		latency := time.Since(start)

		// Get status code
		status := c.Response().StatusCode()

		// Log level based on status
		logLevel := slog.LevelInfo
		if status >= 500 {
			logLevel = slog.LevelError
		} else if status >= 400 {
			logLevel = slog.LevelWarn
		}

		logger.Log(c.UserContext(), logLevel, "http request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.String("ip", c.IP()),
			slog.String("user_agent", c.Get("User-Agent")),
			slog.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
		)

		// Route templates keep label cardinality bounded
		route := c.Route().Path
		for _, o := range observers {
			o.ObserveHTTP(route, c.Method(), strconv.Itoa(status))
		}

		return err
	}
}

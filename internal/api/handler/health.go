package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facesim/internal/database"
)

type HealthHandler struct {
	store   database.Pinger
	version string
	logger  *slog.Logger
}

func NewHealthHandler(store database.Pinger, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:   store,
		version: version,
		logger:  logger,
	}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.store != nil {
		if err := database.HealthCheck(c.UserContext(), h.store); err != nil {
			h.logger.Warn("readiness check failed", slog.Any("error", err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
				Status: "unavailable",
			})
		}
	}

	return c.JSON(HealthResponse{
		Status: "ready",
	})
}

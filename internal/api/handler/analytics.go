package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
)

const defaultStatsWindow = 24 * time.Hour

// AnalyticsService interface for the recognition log views
type AnalyticsService interface {
	RecentEvents(ctx context.Context, limit int) ([]domain.RecognitionEvent, error)
	IdentityHistory(ctx context.Context, label string, limit int) ([]domain.RecognitionEvent, error)
	Stats(ctx context.Context, since time.Time) (*domain.RecognitionStats, error)
}

type AnalyticsHandler struct {
	service AnalyticsService
	logger  *slog.Logger
	now     func() time.Time
}

func NewAnalyticsHandler(service AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// EventsResponse response for events endpoint
type EventsResponse struct {
	Events []domain.RecognitionEvent `json:"events"`
	Count  int                       `json:"count"`
}

// HistoryResponse response for one identity's recognition history
type HistoryResponse struct {
	Label  string                    `json:"label"`
	Events []domain.RecognitionEvent `json:"events"`
	Count  int                       `json:"count"`
}

// StatsResponse response for stats endpoint
type StatsResponse struct {
	Since time.Time `json:"since"`
	*domain.RecognitionStats
}

// Events GET /v1/analytics/events?limit=N - newest first
func (h *AnalyticsHandler) Events(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	events, err := h.service.RecentEvents(c.UserContext(), limit)
	if err != nil {
		return err
	}

	return c.JSON(EventsResponse{Events: events, Count: len(events)})
}

// History GET /v1/identities/:label/events?limit=N - newest first
func (h *AnalyticsHandler) History(c *fiber.Ctx) error {
	label, err := labelParam(c)
	if err != nil {
		return err
	}

	events, err := h.service.IdentityHistory(c.UserContext(), label, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}

	return c.JSON(HistoryResponse{Label: label, Events: events, Count: len(events)})
}

// Stats GET /v1/analytics/stats?window=24h or ?since=RFC3339
func (h *AnalyticsHandler) Stats(c *fiber.Ctx) error {
	since, err := h.parseSince(c)
	if err != nil {
		return err
	}

	stats, err := h.service.Stats(c.UserContext(), since)
	if err != nil {
		return err
	}

	return c.JSON(StatsResponse{Since: since, RecognitionStats: stats})
}

func (h *AnalyticsHandler) parseSince(c *fiber.Ctx) (time.Time, error) {
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, domain.ErrValidationFailed.WithError(errors.New("since must be RFC3339"))
		}
		return since, nil
	}

	window := defaultStatsWindow
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return time.Time{}, domain.ErrValidationFailed.WithError(errors.New("window must be a positive duration such as 24h"))
		}
		window = d
	}

	return h.now().Add(-window), nil
}

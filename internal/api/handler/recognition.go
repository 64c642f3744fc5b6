package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
	"github.com/saturnino-fabrica-de-software/facesim/internal/service"
	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

// RecognitionService interface for the scoring endpoints
type RecognitionService interface {
	Compare(ctx context.Context, a, b similarity.Embedding) (*domain.CompareOutcome, error)
	Verify(ctx context.Context, probe, reference similarity.Embedding, threshold *float64) (*domain.VerifyOutcome, error)
	VerifyIdentity(ctx context.Context, label string, probe similarity.Embedding, threshold *float64) (*domain.VerifyOutcome, error)
	Identify(ctx context.Context, in service.IdentifyInput) (*domain.IdentifyOutcome, error)
	Search(ctx context.Context, probe similarity.Embedding, threshold *float64, maxResults int) (*domain.SearchResult, error)
}

type RecognitionHandler struct {
	service RecognitionService
	logger  *slog.Logger
}

func NewRecognitionHandler(service RecognitionService, logger *slog.Logger) *RecognitionHandler {
	return &RecognitionHandler{
		service: service,
		logger:  logger,
	}
}

// Compare POST /v1/compare - raw similarity between two embeddings
func (h *RecognitionHandler) Compare(c *fiber.Ctx) error {
	var req CompareRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	outcome, err := h.service.Compare(c.UserContext(), req.A, req.B)
	if err != nil {
		return err
	}

	return c.JSON(outcome)
}

// Verify POST /v1/verify - 1:1 between two embeddings
func (h *RecognitionHandler) Verify(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	outcome, err := h.service.Verify(c.UserContext(), req.Probe, req.Reference, req.Threshold)
	if err != nil {
		return err
	}

	return c.JSON(outcome)
}

// VerifyIdentity POST /v1/identities/:label/verify - 1:1 against an enrolled identity
func (h *RecognitionHandler) VerifyIdentity(c *fiber.Ctx) error {
	label, err := labelParam(c)
	if err != nil {
		return err
	}

	var req VerifyIdentityRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	outcome, err := h.service.VerifyIdentity(c.UserContext(), label, req.Probe, req.Threshold)
	if err != nil {
		return err
	}

	return c.JSON(outcome)
}

// Identify POST /v1/identify - 1:N against the whole gallery
func (h *RecognitionHandler) Identify(c *fiber.Ctx) error {
	var req IdentifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	outcome, err := h.service.Identify(c.UserContext(), service.IdentifyInput{
		Probe:     req.Probe,
		Threshold: req.Threshold,
		Location:  req.Location,
		Top:       req.Top,
	})
	if err != nil {
		return err
	}

	h.logger.Debug("identify completed",
		slog.String("status", string(outcome.Status)),
		slog.String("label", outcome.Label),
		slog.Int64("latency_ms", outcome.LatencyMs),
	)

	return c.JSON(outcome)
}

// Search POST /v1/search - ranked matches above the threshold
func (h *RecognitionHandler) Search(c *fiber.Ctx) error {
	var req SearchRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.service.Search(c.UserContext(), req.Probe, req.Threshold, req.MaxResults)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

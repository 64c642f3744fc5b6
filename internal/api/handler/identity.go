package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
	"github.com/saturnino-fabrica-de-software/facesim/internal/service"
)

// IdentityService interface for gallery management
type IdentityService interface {
	Enroll(ctx context.Context, in service.EnrollInput) ([]domain.Enrollment, error)
	ListIdentities(ctx context.Context) ([]domain.Identity, error)
	GetIdentity(ctx context.Context, label string) ([]domain.Enrollment, error)
	DeleteIdentity(ctx context.Context, label string) (int, error)
	DeleteEnrollment(ctx context.Context, id uuid.UUID) error
}

type IdentityHandler struct {
	service IdentityService
	logger  *slog.Logger
}

func NewIdentityHandler(service IdentityService, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{
		service: service,
		logger:  logger,
	}
}

// EnrollResponse response for enroll endpoint
type EnrollResponse struct {
	Label       string              `json:"label"`
	Enrollments []domain.Enrollment `json:"enrollments"`
}

// IdentityResponse response for get endpoint
type IdentityResponse struct {
	Label       string              `json:"label"`
	Enrollments []domain.Enrollment `json:"enrollments"`
}

// ListIdentitiesResponse response for list endpoint
type ListIdentitiesResponse struct {
	Identities []domain.Identity `json:"identities"`
	Total      int               `json:"total"`
}

// DeleteIdentityResponse response for delete endpoint
type DeleteIdentityResponse struct {
	Label   string `json:"label"`
	Deleted int    `json:"deleted"`
}

// Enroll POST /v1/identities - add embeddings to an identity
func (h *IdentityHandler) Enroll(c *fiber.Ctx) error {
	var req EnrollRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	enrollments, err := h.service.Enroll(c.UserContext(), service.EnrollInput{
		Label:        req.Label,
		Embeddings:   req.Embeddings,
		QualityScore: req.QualityScore,
		Metadata:     req.Metadata,
	})
	if err != nil {
		return err
	}

	h.logger.Info("identity enrolled",
		slog.String("label", enrollments[0].Label),
		slog.Int("enrollments", len(enrollments)),
	)

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		Label:       enrollments[0].Label,
		Enrollments: enrollments,
	})
}

// List GET /v1/identities
func (h *IdentityHandler) List(c *fiber.Ctx) error {
	identities, err := h.service.ListIdentities(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(ListIdentitiesResponse{
		Identities: identities,
		Total:      len(identities),
	})
}

// Get GET /v1/identities/:label
func (h *IdentityHandler) Get(c *fiber.Ctx) error {
	label, err := labelParam(c)
	if err != nil {
		return err
	}

	enrollments, err := h.service.GetIdentity(c.UserContext(), label)
	if err != nil {
		return err
	}

	return c.JSON(IdentityResponse{
		Label:       enrollments[0].Label,
		Enrollments: enrollments,
	})
}

// Delete DELETE /v1/identities/:label - remove every enrollment of an identity
func (h *IdentityHandler) Delete(c *fiber.Ctx) error {
	label, err := labelParam(c)
	if err != nil {
		return err
	}

	n, err := h.service.DeleteIdentity(c.UserContext(), label)
	if err != nil {
		return err
	}

	h.logger.Info("identity deleted", slog.String("label", label), slog.Int("enrollments", n))

	return c.JSON(DeleteIdentityResponse{Label: label, Deleted: n})
}

// DeleteEnrollment DELETE /v1/enrollments/:id - remove one enrolled embedding
func (h *IdentityHandler) DeleteEnrollment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("id must be a UUID"))
	}

	if err := h.service.DeleteEnrollment(c.UserContext(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// labelParam reads the :label route parameter. Labels are person names, so
// they arrive percent-encoded.
func labelParam(c *fiber.Ctx) (string, error) {
	raw, err := url.PathUnescape(c.Params("label"))
	if err != nil {
		return "", domain.ErrInvalidLabel.WithError(err)
	}
	label := strings.TrimSpace(raw)
	if label == "" {
		return "", domain.ErrInvalidLabel
	}
	return label, nil
}

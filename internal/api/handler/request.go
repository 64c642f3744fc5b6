package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

var validate = validator.New()

// CompareRequest body for POST /v1/compare
type CompareRequest struct {
	A similarity.Embedding `json:"a" validate:"required"`
	B similarity.Embedding `json:"b" validate:"required"`
}

// VerifyRequest body for POST /v1/verify
type VerifyRequest struct {
	Probe     similarity.Embedding `json:"probe" validate:"required"`
	Reference similarity.Embedding `json:"reference" validate:"required"`
	Threshold *float64             `json:"threshold,omitempty"`
}

// VerifyIdentityRequest body for POST /v1/identities/:label/verify
type VerifyIdentityRequest struct {
	Probe     similarity.Embedding `json:"probe" validate:"required"`
	Threshold *float64             `json:"threshold,omitempty"`
}

// IdentifyRequest body for POST /v1/identify
type IdentifyRequest struct {
	Probe     similarity.Embedding `json:"probe" validate:"required"`
	Threshold *float64             `json:"threshold,omitempty"`
	Location  string               `json:"location,omitempty" validate:"max=255"`
	Top       int                  `json:"top,omitempty"`
}

// SearchRequest body for POST /v1/search
type SearchRequest struct {
	Probe      similarity.Embedding `json:"probe" validate:"required"`
	Threshold  *float64             `json:"threshold,omitempty"`
	MaxResults int                  `json:"max_results,omitempty"`
}

// EnrollRequest body for POST /v1/identities
type EnrollRequest struct {
	Label        string                 `json:"label" validate:"required,max=255"`
	Embeddings   []similarity.Embedding `json:"embeddings" validate:"required,min=1,dive,required"`
	QualityScore float64                `json:"quality_score,omitempty" validate:"gte=0,lte=1"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// bind decodes the JSON body into req and runs the struct validations.
func bind(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" "+fe.Tag())
			}
			return domain.ErrValidationFailed.WithError(errors.New(strings.Join(fields, ", ")))
		}
		return domain.ErrValidationFailed.WithError(err)
	}

	return nil
}

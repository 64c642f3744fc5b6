package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

const maxLabelLength = 255

// Enrollment is one reference embedding registered for an identity.
// An identity may hold several, one per uploaded image.
type Enrollment struct {
	ID           uuid.UUID              `json:"id"`
	Label        string                 `json:"label"`
	Embedding    similarity.Embedding   `json:"-"`
	QualityScore float64                `json:"quality_score"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Identity summarizes the enrollments stored under one label.
type Identity struct {
	Label       string    `json:"label"`
	Enrollments int       `json:"enrollments"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NormalizeLabel trims the label and checks it is usable as an identity key.
func NormalizeLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" || len(label) > maxLabelLength {
		return "", ErrInvalidLabel
	}
	return label, nil
}

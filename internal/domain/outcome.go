package domain

import (
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

// CompareOutcome reports both metrics for a pair of embeddings.
type CompareOutcome struct {
	Similarity float64 `json:"similarity"`
	Distance   float64 `json:"distance"`
}

// VerifyOutcome is the answer to a 1:1 check, either between two embeddings
// or between a probe and an enrolled identity.
type VerifyOutcome struct {
	EventID    uuid.UUID `json:"event_id"`
	Label      string    `json:"label,omitempty"`
	Verified   bool      `json:"verified"`
	Similarity float64   `json:"similarity"`
	Threshold  float64   `json:"threshold"`
	LatencyMs  int64     `json:"latency_ms"`
}

// IdentifyOutcome is the answer to a 1:N lookup. Similarity is nil when the
// gallery was empty. Label is set for recognized and low confidence results.
type IdentifyOutcome struct {
	EventID    uuid.UUID              `json:"event_id"`
	Status     RecognitionStatus      `json:"status"`
	Label      string                 `json:"label,omitempty"`
	Similarity *float64               `json:"similarity"`
	Threshold  float64                `json:"threshold"`
	Candidates []similarity.Candidate `json:"candidates,omitempty"`
	LatencyMs  int64                  `json:"latency_ms"`
}

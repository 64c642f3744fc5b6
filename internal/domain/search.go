package domain

import (
	"github.com/google/uuid"
)

// SearchMatch is one identity returned by a ranked search.
type SearchMatch struct {
	EnrollmentID uuid.UUID              `json:"enrollment_id"`
	Label        string                 `json:"label"`
	Similarity   float64                `json:"similarity"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// SearchResult is the complete response of a ranked search.
type SearchResult struct {
	Matches         []SearchMatch `json:"matches"`
	TotalIdentities int           `json:"total_identities"`
	LatencyMs       int64         `json:"latency_ms"`
	SearchID        uuid.UUID     `json:"search_id"`
}

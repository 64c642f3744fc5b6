// Package similarity compares face embeddings and decides whether they belong
// to the same identity.
//
// Every function in this package is pure: inputs are never mutated, nothing
// is logged and no state is kept between calls, so it is safe to call from
// any number of goroutines.
package similarity

import "errors"

// DefaultThreshold is the minimum score accepted as a match when the caller
// has no configured threshold.
const DefaultThreshold = 0.70

// DefaultDimension is the embedding length produced by the FaceNet-style
// models the service is deployed with.
const DefaultDimension = 128

var (
	// ErrDimensionMismatch is returned when two embeddings of different
	// lengths are compared.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrDegenerateVector is returned when an embedding has no direction:
	// zero norm, zero length or non-finite components.
	ErrDegenerateVector = errors.New("degenerate embedding vector")

	// ErrInvalidThreshold is returned for thresholds outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")
)

// Embedding is a fixed-length feature vector produced by a face embedding model.
type Embedding []float64

// Gallery maps an identity label to the embeddings enrolled for it.
type Gallery map[string][]Embedding

// Status is the outcome of an identification.
type Status string

const (
	StatusRecognized Status = "recognized"
	StatusUnknown    Status = "unknown"
)

// VerifyResult is the outcome of a 1:1 comparison.
type VerifyResult struct {
	IsMatch bool    `json:"is_match"`
	Score   float64 `json:"score"`
}

// Candidate is the best score an identity reached against a probe.
type Candidate struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// IdentifyResult is the outcome of a 1:N search.
//
// For StatusRecognized, Label and Score describe the accepted identity.
// For StatusUnknown, Label is empty and BestScore holds the highest score
// seen, or nil when the gallery had nothing to compare against.
type IdentifyResult struct {
	Status    Status   `json:"status"`
	Label     string   `json:"label,omitempty"`
	Score     float64  `json:"score"`
	BestScore *float64 `json:"best_score,omitempty"`
}

// Recognized reports whether an identity was accepted.
func (r IdentifyResult) Recognized() bool {
	return r.Status == StatusRecognized
}

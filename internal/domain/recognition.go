package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecognitionKind is the operation that produced an event.
type RecognitionKind string

const (
	KindCompare  RecognitionKind = "compare"
	KindVerify   RecognitionKind = "verify"
	KindIdentify RecognitionKind = "identify"
	KindSearch   RecognitionKind = "search"
)

// RecognitionStatus is what the dashboards show for an event.
type RecognitionStatus string

const (
	StatusRecognized    RecognitionStatus = "recognized"
	StatusLowConfidence RecognitionStatus = "low_confidence"
	StatusUnknown       RecognitionStatus = "unknown"
	StatusMatch         RecognitionStatus = "match"
	StatusNoMatch       RecognitionStatus = "no_match"
)

// RecognitionEvent is one entry of the recognition log.
type RecognitionEvent struct {
	ID         uuid.UUID         `json:"id"`
	Kind       RecognitionKind   `json:"kind"`
	Status     RecognitionStatus `json:"status"`
	Label      string            `json:"label,omitempty"`
	Confidence float64           `json:"confidence"`
	Threshold  float64           `json:"threshold"`
	Location   string            `json:"location,omitempty"`
	LatencyMs  int64             `json:"latency_ms"`
	CreatedAt  time.Time         `json:"created_at"`
}

// RecognitionStats aggregates the log for the analytics dashboard.
type RecognitionStats struct {
	Total             int64   `json:"total"`
	Recognized        int64   `json:"recognized"`
	LowConfidence     int64   `json:"low_confidence"`
	Unknown           int64   `json:"unknown"`
	Matches           int64   `json:"matches"`
	NoMatches         int64   `json:"no_matches"`
	AverageConfidence float64 `json:"average_confidence"`
}

// Add folds one event into the aggregate.
func (s *RecognitionStats) Add(e RecognitionEvent) {
	total := float64(s.Total)
	s.Total++
	s.AverageConfidence = (s.AverageConfidence*total + e.Confidence) / float64(s.Total)

	switch e.Status {
	case StatusRecognized:
		s.Recognized++
	case StatusLowConfidence:
		s.LowConfidence++
	case StatusUnknown:
		s.Unknown++
	case StatusMatch:
		s.Matches++
	case StatusNoMatch:
		s.NoMatches++
	}
}

// ClassifyConfidence places a score in one of the dashboard bands.
// Scores at or above threshold are recognized; scores within margin below it
// are low confidence; everything else is unknown.
func ClassifyConfidence(score, threshold, margin float64) RecognitionStatus {
	switch {
	case score >= threshold:
		return StatusRecognized
	case margin > 0 && score >= threshold-margin:
		return StatusLowConfidence
	default:
		return StatusUnknown
	}
}

package domain

import (
	"errors"

	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

const MaxSearchResultsLimit = 50

// Settings controls how scores turn into decisions.
type Settings struct {
	Threshold           float64 `json:"threshold"`
	LowConfidenceMargin float64 `json:"low_confidence_margin"`
	MaxSearchResults    int     `json:"max_search_results"`
	Dimension           int     `json:"dimension"`
}

// DefaultSettings mirrors the values shipped in the admin panel.
func DefaultSettings() Settings {
	return Settings{
		Threshold:           similarity.DefaultThreshold,
		LowConfidenceMargin: 0.10,
		MaxSearchResults:    10,
		Dimension:           similarity.DefaultDimension,
	}
}

// Validate checks that the settings can be used by the service.
func (s Settings) Validate() error {
	if err := similarity.ValidateThreshold(s.Threshold); err != nil {
		return err
	}

	if s.LowConfidenceMargin < 0 || s.LowConfidenceMargin > 1 {
		return errors.New("low confidence margin must be between 0 and 1")
	}

	if s.MaxSearchResults < 1 || s.MaxSearchResults > MaxSearchResultsLimit {
		return errors.New("max search results must be between 1 and 50")
	}

	if s.Dimension < 1 {
		return errors.New("embedding dimension must be positive")
	}

	return nil
}

// ResolveThreshold returns the override when present and the configured
// threshold otherwise. The result is validated either way.
func (s Settings) ResolveThreshold(override *float64) (float64, error) {
	threshold := s.Threshold
	if override != nil {
		threshold = *override
	}

	if err := similarity.ValidateThreshold(threshold); err != nil {
		return 0, FromSimilarityError(err)
	}

	return threshold, nil
}

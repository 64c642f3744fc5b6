package config

import (
	"fmt"
	"math"

	"github.com/kelseyhightower/envconfig"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	// PostgresEmbeddingDim is the width of the enrollments.embedding column.
	PostgresEmbeddingDim = 128
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Storage
	Storage      string `envconfig:"STORAGE" default:"memory"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DatabaseName string `envconfig:"DATABASE_NAME" default:"facesim"`

	// Matching
	EmbeddingDim        int     `envconfig:"EMBEDDING_DIM" default:"128"`
	MatchThreshold      float64 `envconfig:"MATCH_THRESHOLD" default:"0.70"`
	LowConfidenceMargin float64 `envconfig:"LOW_CONFIDENCE_MARGIN" default:"0.10"`
	MaxSearchResults    int     `envconfig:"MAX_SEARCH_RESULTS" default:"10"`

	// Limits
	RateLimitMax int `envconfig:"RATE_LIMIT_MAX" default:"600"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE=%s", StoragePostgres)
		}
		if c.EmbeddingDim != PostgresEmbeddingDim {
			return fmt.Errorf("EMBEDDING_DIM must be %d when STORAGE=%s", PostgresEmbeddingDim, StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown STORAGE %q (use %s or %s)", c.Storage, StorageMemory, StoragePostgres)
	}

	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("EMBEDDING_DIM must be positive, got %d", c.EmbeddingDim)
	}
	if math.IsNaN(c.MatchThreshold) || c.MatchThreshold < 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("MATCH_THRESHOLD must be within [0, 1], got %v", c.MatchThreshold)
	}
	if c.LowConfidenceMargin < 0 || c.LowConfidenceMargin > 1 {
		return fmt.Errorf("LOW_CONFIDENCE_MARGIN must be within [0, 1], got %v", c.LowConfidenceMargin)
	}
	if c.MaxSearchResults <= 0 || c.MaxSearchResults > domain.MaxSearchResultsLimit {
		return fmt.Errorf("MAX_SEARCH_RESULTS must be within [1, %d], got %d", domain.MaxSearchResultsLimit, c.MaxSearchResults)
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) UsesPostgres() bool {
	return c.Storage == StoragePostgres
}

// Settings returns the matching parameters handed to the service.
func (c *Config) Settings() domain.Settings {
	return domain.Settings{
		Threshold:           c.MatchThreshold,
		LowConfidenceMargin: c.LowConfidenceMargin,
		MaxSearchResults:    c.MaxSearchResults,
		Dimension:           c.EmbeddingDim,
	}
}

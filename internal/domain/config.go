package domain

import "time"

// PipelineConfig holds the search and recommendation tuning knobs shared by the orchestrators.
type PipelineConfig struct {
	// MaxCandidates caps how many catalog rows are embedded per request.
	MaxCandidates      int
	SearchTTL          time.Duration
	RecommendationsTTL time.Duration
	// MaxQueryLength is measured in runes.
	MaxQueryLength int
}

// DefaultPipelineConfig returns the production defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxCandidates:      200,
		SearchTTL:          time.Hour,
		RecommendationsTTL: 2 * time.Hour,
		MaxQueryLength:     4096,
	}
}

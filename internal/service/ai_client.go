package service

import (
	"context"

	"propfinder/internal/model"
)

// AIClient is the interface for the grounded AI completion service
type AIClient interface {
	// GenerateListings runs one web-search-grounded completion for prompt
	GenerateListings(ctx context.Context, prompt string) (*Completion, error)

	// GenerateListingsStream is GenerateListings with text deltas passed to onText as they arrive
	GenerateListingsStream(ctx context.Context, prompt string, onText func(delta string) error) (*Completion, error)

	// IsEnabled returns whether the AI client is configured and ready
	IsEnabled() bool
}

// Completion is the raw answer of the AI service
type Completion struct {
	// Text is the free-form model output, untrusted and unstructured
	Text string

	// GroundingChunks are the web sources the answer was grounded on
	GroundingChunks []model.GroundingChunk
}

// Ensure GeminiClient implements AIClient
var _ AIClient = (*GeminiClient)(nil)

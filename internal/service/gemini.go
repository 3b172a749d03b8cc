package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"propfinder/internal/config"
	"propfinder/internal/model"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// errNoCandidates marks a response envelope without any candidate
var errNoCandidates = errors.New("no candidates in Gemini response")

// GeminiClient talks to the Gemini API with the Google Search tool enabled
type GeminiClient struct {
	config *config.GeminiConfig
	client *genai.Client
	log    zerolog.Logger
}

// NewGeminiClient creates a Gemini client. Without an API key the client is
// returned disabled and never touches the network.
func NewGeminiClient(ctx context.Context, cfg *config.GeminiConfig, log zerolog.Logger) (*GeminiClient, error) {
	c := &GeminiClient{
		config: cfg,
		log:    log.With().Str("component", "gemini").Logger(),
	}
	if !cfg.Enabled {
		return c, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	return c, nil
}

// IsEnabled returns whether the client is configured and ready
func (c *GeminiClient) IsEnabled() bool {
	return c != nil && c.config.Enabled && c.client != nil
}

func (c *GeminiClient) contentConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		// no response MIME type: JSON mode cannot be combined with the search tool
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}
	if c.config.Temperature > 0 {
		temp := float32(c.config.Temperature)
		cfg.Temperature = &temp
	}
	return cfg
}

func (c *GeminiClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(c.config.Timeout)*time.Second)
}

// GenerateListings performs a single grounded completion
func (c *GeminiClient) GenerateListings(ctx context.Context, prompt string) (*Completion, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("Gemini API is not enabled (missing API key)")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, genai.Text(prompt), c.contentConfig())
	if err != nil {
		return nil, fmt.Errorf("Gemini generation failed: %w", err)
	}

	completion, err := completionFromResponse(resp)
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("model", c.config.Model).
		Int("text_len", len(completion.Text)).
		Int("grounding_chunks", len(completion.GroundingChunks)).
		Dur("took", time.Since(start)).
		Msg("Gemini completion finished")

	return completion, nil
}

// GenerateListingsStream performs a grounded completion in streaming mode
func (c *GeminiClient) GenerateListingsStream(ctx context.Context, prompt string, onText func(delta string) error) (*Completion, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("Gemini API is not enabled (missing API key)")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var text strings.Builder
	var chunks []model.GroundingChunk
	sawCandidate := false

	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.config.Model, genai.Text(prompt), c.contentConfig()) {
		if err != nil {
			return nil, fmt.Errorf("Gemini streaming failed: %w", err)
		}
		if resp == nil || len(resp.Candidates) == 0 {
			continue
		}
		sawCandidate = true

		delta := candidateText(resp.Candidates[0])
		if delta != "" {
			text.WriteString(delta)
			if onText != nil {
				if err := onText(delta); err != nil {
					return nil, fmt.Errorf("callback error: %w", err)
				}
			}
		}

		// grounding metadata normally arrives with the final chunk
		if gc := groundingChunks(resp.Candidates[0]); len(gc) > 0 {
			chunks = gc
		}
	}

	if !sawCandidate {
		return nil, errNoCandidates
	}
	if chunks == nil {
		chunks = []model.GroundingChunk{}
	}
	return &Completion{Text: text.String(), GroundingChunks: chunks}, nil
}

// completionFromResponse extracts text and citations from the first candidate
func completionFromResponse(resp *genai.GenerateContentResponse) (*Completion, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, errNoCandidates
	}
	candidate := resp.Candidates[0]
	return &Completion{
		Text:            candidateText(candidate),
		GroundingChunks: groundingChunks(candidate),
	}, nil
}

func candidateText(candidate *genai.Candidate) string {
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func groundingChunks(candidate *genai.Candidate) []model.GroundingChunk {
	chunks := []model.GroundingChunk{}
	if candidate == nil || candidate.GroundingMetadata == nil {
		return chunks
	}
	for _, gc := range candidate.GroundingMetadata.GroundingChunks {
		if gc == nil || gc.Web == nil {
			continue
		}
		chunks = append(chunks, model.GroundingChunk{
			Web: &model.WebGroundingChunk{
				URI:   gc.Web.URI,
				Title: gc.Web.Title,
			},
		})
	}
	return chunks
}

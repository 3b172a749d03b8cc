package service

import (
	"context"
	"errors"
	"testing"

	"propfinder/internal/config"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

func TestCompletionFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "thinking about it", Thought: true},
						{Text: "START_LISTING\n"},
						{Text: "TITLE: A\nDESCRIPTION: B\nEND_LISTING"},
					},
				},
				GroundingMetadata: &genai.GroundingMetadata{
					GroundingChunks: []*genai.GroundingChunk{
						{Web: &genai.GroundingChunkWeb{URI: "https://www.airbnb.com/rooms/1", Title: "airbnb.com"}},
						{},
					},
				},
			},
		},
	}

	got, err := completionFromResponse(resp)
	if err != nil {
		t.Fatalf("completionFromResponse error: %v", err)
	}
	if got.Text != "START_LISTING\nTITLE: A\nDESCRIPTION: B\nEND_LISTING" {
		t.Errorf("unexpected text %q", got.Text)
	}
	if len(got.GroundingChunks) != 1 || got.GroundingChunks[0].Web.URI != "https://www.airbnb.com/rooms/1" {
		t.Errorf("unexpected grounding chunks %+v", got.GroundingChunks)
	}
}

func TestCompletionFromResponse_NoCandidates(t *testing.T) {
	for _, resp := range []*genai.GenerateContentResponse{nil, {}} {
		if _, err := completionFromResponse(resp); !errors.Is(err, errNoCandidates) {
			t.Errorf("expected errNoCandidates, got %v", err)
		}
	}
}

func TestGeminiClient_DisabledWithoutKey(t *testing.T) {
	client, err := NewGeminiClient(context.Background(), &config.GeminiConfig{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewGeminiClient error: %v", err)
	}
	if client.IsEnabled() {
		t.Error("client without key must be disabled")
	}
	if _, err := client.GenerateListings(context.Background(), "prompt"); err == nil {
		t.Error("expected error from disabled client")
	}
}

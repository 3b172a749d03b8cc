package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"propfinder/internal/catalog"
	"propfinder/internal/model"
	"propfinder/internal/utils"

	"github.com/rs/zerolog"
)

// User-facing messages of the search result tuple
const (
	APIKeyErrorMessage      = "API Key for Gemini is not configured. Please ensure the GEMINI_API_KEY environment variable is set."
	InvalidAPIKeySuffix     = " Or, the key might be invalid."
	LocationRequiredMessage = "Please select a location on the map."
	SearchFailedMessage     = "Failed to fetch listings. Please try again later."

	FallbackTitle    = "AI Generated Response (Format Mismatch)"
	FallbackNote     = "The AI model provided information, but it wasn't in the structured format expected. Displaying the raw text it returned:"
	FallbackImageURL = "https://picsum.photos/seed/fallback/400/300"
	FallbackWarning  = "The AI's response couldn't be fully structured, so the raw text is shown below. Some details might be missing."
)

// SearchService turns criteria into one grounded AI call and a result tuple
type SearchService struct {
	ai      AIClient
	catalog *catalog.Catalog
	log     zerolog.Logger
	now     func() time.Time
}

// NewSearchService creates a new search service. A nil or disabled AI client
// is allowed: every search then reports the configuration error.
func NewSearchService(ai AIClient, cat *catalog.Catalog, log zerolog.Logger) *SearchService {
	if cat == nil {
		cat = catalog.Default()
	}
	return &SearchService{
		ai:      ai,
		catalog: cat,
		log:     log.With().Str("component", "search").Logger(),
		now:     time.Now,
	}
}

// SearchEventCallback is called for streaming search events
type SearchEventCallback func(event string, data any) error

// Enabled reports whether searches can reach the AI service
func (s *SearchService) Enabled() bool {
	return s.ai != nil && s.ai.IsEnabled()
}

// Search performs one AI search. It never fails: problems are reported in
// the Error field of the result, with empty listings.
func (s *SearchService) Search(ctx context.Context, criteria model.Criteria) model.SearchResult {
	if res, ok := s.precheck(criteria); !ok {
		return res
	}

	start := time.Now()
	prompt := BuildPrompt(criteria, s.catalog)

	completion, err := s.ai.GenerateListings(ctx, prompt)
	if err != nil {
		return s.failure(err)
	}

	res := s.interpret(completion)
	s.log.Info().
		Int("listings", len(res.Listings)).
		Int("sources", len(res.GroundingChunks)).
		Bool("fallback", res.Warning != "").
		Dur("took", time.Since(start)).
		Msg("🔍 Search finished")
	return res
}

// SearchStream is Search using the streaming call. Text deltas are passed to
// callback as "content" events while the model writes its answer.
func (s *SearchService) SearchStream(ctx context.Context, criteria model.Criteria, callback SearchEventCallback) model.SearchResult {
	if res, ok := s.precheck(criteria); !ok {
		return res
	}

	if err := callback("searching", map[string]any{
		"status": "Searching the web for listings...",
	}); err != nil {
		return s.failure(err)
	}

	start := time.Now()
	prompt := BuildPrompt(criteria, s.catalog)

	completion, err := s.ai.GenerateListingsStream(ctx, prompt, func(delta string) error {
		return callback("content", map[string]any{
			"content": delta,
		})
	})
	if err != nil {
		return s.failure(err)
	}

	res := s.interpret(completion)
	s.log.Info().
		Int("listings", len(res.Listings)).
		Int("sources", len(res.GroundingChunks)).
		Bool("fallback", res.Warning != "").
		Dur("took", time.Since(start)).
		Msg("🔍 Streaming search finished")
	return res
}

// precheck enforces the preconditions that must hold before any network call
func (s *SearchService) precheck(criteria model.Criteria) (model.SearchResult, bool) {
	if !s.Enabled() {
		return errorResult(APIKeyErrorMessage), false
	}
	if criteria.PinnedLocation == nil {
		return errorResult(LocationRequiredMessage), false
	}
	return model.SearchResult{}, true
}

// interpret parses the completion and applies the format-mismatch fallback
func (s *SearchService) interpret(completion *Completion) model.SearchResult {
	chunks := completion.GroundingChunks
	if chunks == nil {
		chunks = []model.GroundingChunk{}
	}

	now := s.now()
	listings := utils.ParseListings(completion.Text, now)
	if len(listings) > 0 || strings.TrimSpace(completion.Text) == "" {
		return model.SearchResult{Listings: listings, GroundingChunks: chunks}
	}

	s.log.Warn().
		Int("text_len", len(completion.Text)).
		Msg("⚠️  AI response did not follow the listing format, returning raw text")

	return model.SearchResult{
		Listings:        []model.Listing{fallbackListing(completion.Text, now)},
		GroundingChunks: chunks,
		Warning:         FallbackWarning,
	}
}

func fallbackListing(raw string, now time.Time) model.Listing {
	return model.Listing{
		ID:          "fallback-" + strconv.FormatInt(now.UnixMilli(), 10),
		Title:       FallbackTitle,
		Description: FallbackNote + "\n\n" + raw,
		ImageURL:    FallbackImageURL,
	}
}

func (s *SearchService) failure(err error) model.SearchResult {
	s.log.Error().Err(err).Msg("Error fetching listings from Gemini API")
	return errorResult(ClassifyError(err))
}

// ClassifyError maps an AI call failure to its user-facing message
func ClassifyError(err error) string {
	if err == nil {
		return SearchFailedMessage
	}
	detail := err.Error()
	if strings.Contains(detail, "API key not valid") || strings.Contains(detail, "API_KEY_INVALID") {
		return APIKeyErrorMessage + InvalidAPIKeySuffix
	}
	if detail == "" {
		return SearchFailedMessage
	}
	return SearchFailedMessage + " API Error: " + detail
}

func errorResult(msg string) model.SearchResult {
	return model.SearchResult{
		Listings:        []model.Listing{},
		GroundingChunks: []model.GroundingChunk{},
		Error:           msg,
	}
}

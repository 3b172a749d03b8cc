package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"propfinder/internal/catalog"
	"propfinder/internal/model"

	"github.com/rs/zerolog"
)

// fakeAI records calls and replays a canned completion
type fakeAI struct {
	enabled bool
	text    string
	chunks  []model.GroundingChunk
	err     error
	deltas  []string

	calls      int
	lastPrompt string
}

func (f *fakeAI) GenerateListings(_ context.Context, prompt string) (*Completion, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return &Completion{Text: f.text, GroundingChunks: f.chunks}, nil
}

func (f *fakeAI) GenerateListingsStream(_ context.Context, prompt string, onText func(string) error) (*Completion, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	var text strings.Builder
	for _, d := range f.deltas {
		text.WriteString(d)
		if err := onText(d); err != nil {
			return nil, err
		}
	}
	return &Completion{Text: text.String(), GroundingChunks: f.chunks}, nil
}

func (f *fakeAI) IsEnabled() bool { return f.enabled }

var fixedNow = time.UnixMilli(1_700_000_000_123)

func newTestSearch(ai AIClient) *SearchService {
	s := NewSearchService(ai, catalog.Default(), zerolog.Nop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func pinnedCriteria(t *testing.T) model.Criteria {
	t.Helper()
	c, err := model.DefaultCriteria().WithPinnedLocation(model.LatLng{Lat: 40.7, Lng: -74})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

const twoListings = `Here you go:
START_LISTING
TITLE: Loft
DESCRIPTION: Open plan
SOURCE_URL: https://www.airbnb.com/rooms/1
END_LISTING
START_LISTING
TITLE: Studio
DESCRIPTION: Compact
END_LISTING`

func TestSearch_Preconditions(t *testing.T) {
	disabled := &fakeAI{enabled: false}
	res := newTestSearch(disabled).Search(context.Background(), pinnedCriteria(t))
	if res.Error != APIKeyErrorMessage || len(res.Listings) != 0 || disabled.calls != 0 {
		t.Errorf("disabled client: error=%q listings=%d calls=%d", res.Error, len(res.Listings), disabled.calls)
	}

	res = newTestSearch(nil).Search(context.Background(), pinnedCriteria(t))
	if res.Error != APIKeyErrorMessage {
		t.Errorf("nil client: error=%q", res.Error)
	}

	ai := &fakeAI{enabled: true, text: twoListings}
	res = newTestSearch(ai).Search(context.Background(), model.DefaultCriteria())
	if res.Error != LocationRequiredMessage || ai.calls != 0 {
		t.Errorf("no pin: error=%q calls=%d", res.Error, ai.calls)
	}
	if res.Listings == nil || res.GroundingChunks == nil {
		t.Error("error results must carry empty, non-nil collections")
	}
}

func TestSearch_Results(t *testing.T) {
	chunks := []model.GroundingChunk{{Web: &model.WebGroundingChunk{URI: "https://www.airbnb.com/rooms/1", Title: "airbnb.com"}}}

	tests := []struct {
		name        string
		text        string
		wantCount   int
		wantWarning string
		check       func(t *testing.T, res model.SearchResult)
	}{
		{
			name:      "structured",
			text:      twoListings,
			wantCount: 2,
			check: func(t *testing.T, res model.SearchResult) {
				if res.Listings[0].ID != "listing-1700000000123-0" || res.Listings[1].ID != "listing-1700000000123-1" {
					t.Errorf("unexpected ids %q %q", res.Listings[0].ID, res.Listings[1].ID)
				}
			},
		},
		{
			name:        "unstructured text falls back",
			text:        "Sorry, here are some places: Loft on 5th, $3000/month.",
			wantCount:   1,
			wantWarning: FallbackWarning,
			check: func(t *testing.T, res model.SearchResult) {
				l := res.Listings[0]
				if l.ID != "fallback-1700000000123" || l.Title != FallbackTitle || l.ImageURL != FallbackImageURL {
					t.Errorf("unexpected fallback listing %+v", l)
				}
				if !strings.HasSuffix(l.Description, "\n\nSorry, here are some places: Loft on 5th, $3000/month.") {
					t.Errorf("fallback description must embed raw text verbatim: %q", l.Description)
				}
			},
		},
		{
			name:      "blank text",
			text:      "  \n ",
			wantCount: 0,
		},
		{
			name:        "blocks without required fields fall back",
			text:        "START_LISTING\nTITLE: only a title\nEND_LISTING",
			wantCount:   1,
			wantWarning: FallbackWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &fakeAI{enabled: true, text: tt.text, chunks: chunks}
			res := newTestSearch(ai).Search(context.Background(), pinnedCriteria(t))

			if ai.calls != 1 {
				t.Errorf("expected exactly one AI call, got %d", ai.calls)
			}
			if res.Error != "" {
				t.Fatalf("unexpected error %q", res.Error)
			}
			if len(res.Listings) != tt.wantCount {
				t.Fatalf("got %d listings, want %d", len(res.Listings), tt.wantCount)
			}
			if res.Warning != tt.wantWarning {
				t.Errorf("warning = %q, want %q", res.Warning, tt.wantWarning)
			}
			if len(res.GroundingChunks) != 1 {
				t.Errorf("grounding chunks not passed through: %+v", res.GroundingChunks)
			}
			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestSearch_Failures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "invalid key",
			err:  errors.New("Error 400, Message: API key not valid. Please pass a valid API key., Status: INVALID_ARGUMENT"),
			want: APIKeyErrorMessage + InvalidAPIKeySuffix,
		},
		{
			name: "invalid key reason",
			err:  errors.New("reason: API_KEY_INVALID"),
			want: APIKeyErrorMessage + InvalidAPIKeySuffix,
		},
		{
			name: "quota",
			err:  errors.New("Error 429, Status: RESOURCE_EXHAUSTED"),
			want: SearchFailedMessage + " API Error: Error 429, Status: RESOURCE_EXHAUSTED",
		},
		{
			name: "malformed envelope",
			err:  errNoCandidates,
			want: SearchFailedMessage + " API Error: no candidates in Gemini response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &fakeAI{enabled: true, err: tt.err}
			res := newTestSearch(ai).Search(context.Background(), pinnedCriteria(t))

			if res.Error != tt.want {
				t.Errorf("error = %q, want %q", res.Error, tt.want)
			}
			if len(res.Listings) != 0 || len(res.GroundingChunks) != 0 {
				t.Error("failures must not carry listings or sources")
			}
			if ai.calls != 1 {
				t.Errorf("failures must not be retried, got %d calls", ai.calls)
			}
		})
	}
}

func TestSearch_PromptCarriesCriteria(t *testing.T) {
	ai := &fakeAI{enabled: true, text: twoListings}
	criteria := pinnedCriteria(t).WithAIPrompt("near the river")
	criteria, _ = criteria.ToggleAmenity(model.CategoryUtility, "gym")

	newTestSearch(ai).Search(context.Background(), criteria)

	for _, want := range []string{`"near the river"`, "Gym/Fitness Center Access", "Latitude 40.7, Longitude -74"} {
		if !strings.Contains(ai.lastPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSearchStream(t *testing.T) {
	ai := &fakeAI{
		enabled: true,
		deltas:  []string{"START_LISTING\nTITLE: Loft\n", "DESCRIPTION: Open plan\nEND_LISTING"},
	}

	var events []string
	var content strings.Builder
	res := newTestSearch(ai).SearchStream(context.Background(), pinnedCriteria(t), func(event string, data any) error {
		events = append(events, event)
		if event == "content" {
			content.WriteString(data.(map[string]any)["content"].(string))
		}
		return nil
	})

	if res.Error != "" || len(res.Listings) != 1 || res.Listings[0].Title != "Loft" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(events) != 3 || events[0] != "searching" || events[1] != "content" {
		t.Errorf("unexpected events %v", events)
	}
	if !strings.Contains(content.String(), "DESCRIPTION: Open plan") {
		t.Errorf("content deltas not forwarded: %q", content.String())
	}
}

func TestSearchStream_CallbackFailure(t *testing.T) {
	ai := &fakeAI{enabled: true, deltas: []string{"text"}}
	res := newTestSearch(ai).SearchStream(context.Background(), pinnedCriteria(t), func(string, any) error {
		return errors.New("client gone")
	})

	if res.Error == "" || ai.calls != 0 {
		t.Errorf("expected failure before the AI call, got error=%q calls=%d", res.Error, ai.calls)
	}
}

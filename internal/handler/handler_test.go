package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"propfinder/internal/catalog"
	"propfinder/internal/config"
	"propfinder/internal/model"
	"propfinder/internal/repository"
	"propfinder/internal/service"
	"propfinder/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

const oneListing = "START_LISTING\nTITLE: Loft\nDESCRIPTION: Open plan\nSOURCE_URL: https://www.booking.com/hotel/1\nEND_LISTING"

// stubAI answers every call with the same text
type stubAI struct {
	enabled bool
	text    string
	calls   int
}

func (s *stubAI) GenerateListings(context.Context, string) (*service.Completion, error) {
	s.calls++
	return &service.Completion{
		Text:            s.text,
		GroundingChunks: []model.GroundingChunk{{Web: &model.WebGroundingChunk{URI: "https://www.booking.com/hotel/1"}}},
	}, nil
}

func (s *stubAI) GenerateListingsStream(_ context.Context, _ string, onText func(string) error) (*service.Completion, error) {
	s.calls++
	if err := onText(s.text); err != nil {
		return nil, err
	}
	return &service.Completion{Text: s.text}, nil
}

func (s *stubAI) IsEnabled() bool { return s.enabled }

type testEnv struct {
	router   *gin.Engine
	ai       *stubAI
	listings *service.ListingStore
	previews *service.PreviewRegistry
}

func newTestEnv(t *testing.T, geocodeURL string) *testEnv {
	t.Helper()
	log := zerolog.Nop()
	ai := &stubAI{enabled: true, text: oneListing}

	cat := catalog.Default()
	searchService := service.NewSearchService(ai, cat, log)
	listings := service.NewListingStore(repository.NewMemorySlotStore(), "", log)
	previews := service.NewPreviewRegistry(time.Minute, 1<<20, log)
	geocoder := service.NewGeocoder(&config.GeocodingConfig{
		BaseURL: geocodeURL, UserAgent: "test", Timeout: 5, Enabled: geocodeURL != "",
	}, log)
	sessions := session.NewManager("", log)

	router := gin.New()
	api := router.Group("/api/v1")
	NewCatalogHandler(cat).Register(api)
	NewSearchHandler(searchService, listings).Register(api)
	NewSessionHandler(sessions, searchService, listings, geocoder, log).Register(api)
	NewListingHandler(listings, previews, log).Register(api)
	NewPreviewHandler(previews).Register(api)
	NewGeocodeHandler(geocoder).Register(api)

	return &testEnv{router: router, ai: ai, listings: listings, previews: previews}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return v
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "photo.png")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(image)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
		wantCount  int
		wantCalls  int
	}{
		{
			name:       "pinned",
			body:       `{"pinnedLocation":{"lat":40.7,"lng":-74},"safetyAmenities":["cctv"]}`,
			wantStatus: http.StatusOK,
			wantCount:  1,
			wantCalls:  1,
		},
		{
			name:       "no pin",
			body:       `{"locationQuery":"Paris"}`,
			wantStatus: http.StatusOK,
			wantError:  service.LocationRequiredMessage,
		},
		{
			name:       "invalid json",
			body:       `{"pinnedLocation":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "out of range pin",
			body:       `{"pinnedLocation":{"lat":91,"lng":0}}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.ai.calls = 0
			w := env.do(t, http.MethodPost, "/api/v1/search", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if env.ai.calls != tt.wantCalls {
				t.Errorf("AI calls = %d, want %d", env.ai.calls, tt.wantCalls)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			resp := decode[model.SearchResponse](t, w)
			if resp.Error != tt.wantError || len(resp.Listings) != tt.wantCount {
				t.Errorf("error=%q listings=%d", resp.Error, len(resp.Listings))
			}
		})
	}
}

func TestSearch_UserListingsFirst(t *testing.T) {
	env := newTestEnv(t, "")
	env.listings.Add(context.Background(), model.ListingDraft{
		Title: "Mine", Description: "D", Address: "A", ContactNumber: "1",
	}, "data:image/png;base64,AAAA")

	w := env.do(t, http.MethodPost, "/api/v1/search", `{"pinnedLocation":{"lat":1,"lng":2}}`)
	resp := decode[model.SearchResponse](t, w)

	if len(resp.Listings) != 2 || !resp.Listings[0].IsUserListing || resp.Listings[1].Title != "Loft" {
		t.Errorf("unexpected listing order %+v", resp.Listings)
	}
	if len(resp.SourceAttributions) != 1 {
		t.Errorf("expected source attributions, got %+v", resp.SourceAttributions)
	}
}

func TestSearchStream(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.do(t, http.MethodPost, "/api/v1/search/stream", `{"pinnedLocation":{"lat":1,"lng":2}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	for _, event := range []string{"event: start", "event: searching", "event: content", "event: results", "event: done"} {
		if !strings.Contains(body, event) {
			t.Errorf("stream missing %q", event)
		}
	}
}

func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/v1/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	view := decode[model.SessionView](t, w)
	base := "/api/v1/sessions/" + view.ID

	// searching without a pin reports the location error and makes no call
	view = decode[model.SessionView](t, env.do(t, http.MethodPost, base+"/search", ""))
	if view.Error != service.LocationRequiredMessage || env.ai.calls != 0 {
		t.Errorf("search without pin: error=%q calls=%d", view.Error, env.ai.calls)
	}

	steps := []struct {
		method, path, body string
		wantStatus         int
	}{
		{http.MethodPut, "/property-type", `{"propertyType":"Family Home"}`, http.StatusOK},
		{http.MethodPost, "/amenities/safety/cctv/toggle", "", http.StatusOK},
		{http.MethodPost, "/amenities/comfort/sofa/toggle", "", http.StatusBadRequest},
		{http.MethodPut, "/location", `{"query":"Brooklyn"}`, http.StatusOK},
		{http.MethodPut, "/pin", `{"lat":40.6,"lng":-73.9}`, http.StatusOK},
		{http.MethodPut, "/pin", `{"lat":40.6}`, http.StatusBadRequest},
		{http.MethodPut, "/prompt", `{"prompt":"near a park"}`, http.StatusOK},
	}
	for _, step := range steps {
		w := env.do(t, step.method, base+step.path, step.body)
		if w.Code != step.wantStatus {
			t.Errorf("%s %s: status = %d, want %d: %s", step.method, step.path, w.Code, step.wantStatus, w.Body.String())
		}
	}

	view = decode[model.SessionView](t, env.do(t, http.MethodGet, base, ""))
	c := view.Criteria
	if c.PropertyType != model.PropertyTypeFamily || len(c.SafetyAmenities) != 1 || c.LocationQuery != "Brooklyn" ||
		c.PinnedLocation == nil || c.AIPrompt != "near a park" {
		t.Fatalf("unexpected criteria %+v", c)
	}

	view = decode[model.SessionView](t, env.do(t, http.MethodPost, base+"/search", ""))
	if view.Error != "" || len(view.Listings) != 1 || view.SearchSeq != 2 || !view.SearchEnabled {
		t.Errorf("unexpected search view %+v", view)
	}

	view = decode[model.SessionView](t, env.do(t, http.MethodPost, base+"/clear", ""))
	if view.Criteria.PinnedLocation != nil || len(view.Listings) != 0 || view.Criteria.LocationQuery != model.DefaultLocationQuery {
		t.Errorf("clear did not reset session: %+v", view)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/sessions/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d", w.Code)
	}
}

func TestSessionGeocode(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"40.7128","lon":"-74.0060"}]`))
	}))
	defer nominatim.Close()
	env := newTestEnv(t, nominatim.URL)

	view := decode[model.SessionView](t, env.do(t, http.MethodPost, "/api/v1/sessions", ""))
	w := env.do(t, http.MethodPost, "/api/v1/sessions/"+view.ID+"/geocode", "")
	if w.Code != http.StatusOK {
		t.Fatalf("geocode status = %d: %s", w.Code, w.Body.String())
	}
	view = decode[model.SessionView](t, w)
	if view.Criteria.PinnedLocation == nil || view.Criteria.PinnedLocation.Lat != 40.7128 {
		t.Errorf("pin not set from geocoding: %+v", view.Criteria)
	}

	w = env.do(t, http.MethodGet, "/api/v1/geocode?q=New+York", "")
	resp := decode[model.GeocodeResponse](t, w)
	if !resp.Found || resp.Location == nil {
		t.Errorf("unexpected geocode response %+v", resp)
	}
}

func TestCreateListing_Multipart(t *testing.T) {
	env := newTestEnv(t, "")
	fields := map[string]string{
		"title": "Garden flat", "description": "Quiet", "address": "2 Side St", "contactNumber": "555",
	}

	body, ct := multipartBody(t, fields, pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	listing := decode[model.Listing](t, w)
	if !listing.IsUserListing || !strings.HasPrefix(listing.ID, "user-") || !strings.HasPrefix(listing.ImageURL, "data:image/png;base64,") {
		t.Errorf("unexpected listing %+v", listing)
	}

	// missing image
	body, ct = multipartBody(t, fields, nil)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/listings", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing image status = %d", w.Code)
	}

	list := decode[map[string][]model.Listing](t, env.do(t, http.MethodGet, "/api/v1/listings", ""))
	if len(list["listings"]) != 1 {
		t.Errorf("expected one stored listing, got %d", len(list["listings"]))
	}
}

func TestCreateListing_PreviewReleasedOnEveryPath(t *testing.T) {
	env := newTestEnv(t, "")

	// validation failure still releases the preview
	p := env.previews.Acquire(pngHeader, "image/png", "")
	w := env.do(t, http.MethodPost, "/api/v1/listings", `{"title":"No address","description":"D","previewId":"`+p.ID+`"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if env.previews.Len() != 0 {
		t.Error("preview leaked after validation failure")
	}

	p = env.previews.Acquire(pngHeader, "image/png", "")
	w = env.do(t, http.MethodPost, "/api/v1/listings",
		`{"title":"T","description":"D","address":"A","contactNumber":"1","previewId":"`+p.ID+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if env.previews.Len() != 0 {
		t.Error("preview leaked after successful submit")
	}

	w = env.do(t, http.MethodPost, "/api/v1/listings",
		`{"title":"T","description":"D","address":"A","contactNumber":"1","previewId":"gone"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown preview status = %d", w.Code)
	}
}

func TestPreviews(t *testing.T) {
	env := newTestEnv(t, "")

	upload := func(fields map[string]string, image []byte) *httptest.ResponseRecorder {
		body, ct := multipartBody(t, fields, image)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/previews", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	w := upload(nil, pngHeader)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", w.Code, w.Body.String())
	}
	first := decode[model.PreviewResponse](t, w)
	if first.ContentType != "image/png" {
		t.Errorf("content type = %q", first.ContentType)
	}

	second := decode[model.PreviewResponse](t, upload(map[string]string{"replaces": first.ID}, pngHeader))
	if w := env.do(t, http.MethodGet, first.URL, ""); w.Code != http.StatusNotFound {
		t.Errorf("superseded preview still served, status %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, second.URL, ""); w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Errorf("preview fetch status=%d type=%q", w.Code, w.Header().Get("Content-Type"))
	}

	if w := upload(nil, []byte("not an image")); w.Code != http.StatusBadRequest {
		t.Errorf("non-image upload status = %d", w.Code)
	}

	if w := env.do(t, http.MethodDelete, second.URL, ""); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, second.URL, ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", w.Code)
	}
}

func TestCatalog(t *testing.T) {
	env := newTestEnv(t, "")
	resp := decode[map[string]json.RawMessage](t, env.do(t, http.MethodGet, "/api/v1/catalog", ""))

	var safety []catalog.Amenity
	if err := json.Unmarshal(resp["safetyAmenities"], &safety); err != nil || len(safety) != 5 {
		t.Errorf("safety amenities = %d (%v)", len(safety), err)
	}
	var types []string
	if err := json.Unmarshal(resp["propertyTypes"], &types); err != nil || len(types) != 3 {
		t.Errorf("property types = %v (%v)", types, err)
	}
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"propfinder/internal/config"
	"propfinder/internal/model"

	"github.com/rs/zerolog"
)

// Geocoder resolves free-text locations against a Nominatim-compatible API
type Geocoder struct {
	config     *config.GeocodingConfig
	httpClient *http.Client
	log        zerolog.Logger
}

// NewGeocoder creates a new geocoder
func NewGeocoder(cfg *config.GeocodingConfig, log zerolog.Logger) *Geocoder {
	return &Geocoder{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		log: log.With().Str("component", "geocoder").Logger(),
	}
}

// IsEnabled returns whether geocoding is configured
func (g *Geocoder) IsEnabled() bool {
	return g != nil && g.config.Enabled && g.config.BaseURL != ""
}

// nominatimPlace is one entry of a Nominatim search answer; coordinates arrive as strings
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Lookup returns the coordinates of the best match for query.
// A blank query or an empty answer is reported as not found.
func (g *Geocoder) Lookup(ctx context.Context, query string) (model.LatLng, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.LatLng{}, false, nil
	}
	if !g.IsEnabled() {
		return model.LatLng{}, false, fmt.Errorf("geocoding is not enabled")
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("q", query)
	reqURL := fmt.Sprintf("%s/search?%s", strings.TrimRight(g.config.BaseURL, "/"), params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.LatLng{}, false, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", g.config.UserAgent)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return model.LatLng{}, false, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.LatLng{}, false, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.LatLng{}, false, fmt.Errorf("geocoding request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return model.LatLng{}, false, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(places) == 0 {
		g.log.Debug().Str("query", query).Msg("No geocoding match")
		return model.LatLng{}, false, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return model.LatLng{}, false, fmt.Errorf("invalid latitude %q: %w", places[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return model.LatLng{}, false, fmt.Errorf("invalid longitude %q: %w", places[0].Lon, err)
	}

	loc := model.LatLng{Lat: lat, Lng: lng}
	if err := loc.Validate(); err != nil {
		return model.LatLng{}, false, err
	}

	g.log.Debug().Str("query", query).Str("match", places[0].DisplayName).Msg("📍 Geocoded location")
	return loc, true, nil
}

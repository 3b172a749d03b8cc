// Package app wires configuration into the services shared by the HTTP
// server and the command-line client.
package app

import (
	"context"
	"fmt"

	"propfinder/internal/catalog"
	"propfinder/internal/config"
	"propfinder/internal/repository"
	"propfinder/internal/service"
	"propfinder/internal/session"

	"github.com/rs/zerolog"
)

// App holds the long-lived services
type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Slots    repository.SlotStore
	Catalog  *catalog.Catalog
	AI       *service.GeminiClient
	Search   *service.SearchService
	Listings *service.ListingStore
	Previews *service.PreviewRegistry
	Geocoder *service.Geocoder
	Sessions *session.Manager
}

// New opens storage, loads user listings and builds every service
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	cat := catalog.Default()
	if cfg.Catalog.File != "" {
		loaded, err := catalog.LoadFile(cfg.Catalog.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		cat = loaded
		log.Info().Str("file", cfg.Catalog.File).Msg("✅ Amenity catalog loaded")
	}

	slots, err := repository.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	log.Info().Str("driver", cfg.Storage.Driver).Msg("✅ Storage ready")

	ai, err := service.NewGeminiClient(ctx, &cfg.Gemini, log)
	if err != nil {
		slots.Close()
		return nil, err
	}
	if ai.IsEnabled() {
		log.Info().
			Str("model", cfg.Gemini.Model).
			Int("timeout_s", cfg.Gemini.Timeout).
			Msg("✅ Gemini client initialized")
	} else {
		log.Warn().Msg("⚠️  Gemini is disabled - set GEMINI_API_KEY to enable AI search")
	}

	configError := ""
	if !ai.IsEnabled() {
		configError = service.APIKeyErrorMessage
	}

	listings := service.NewListingStore(slots, cfg.Storage.SlotKey, log)
	listings.Load(ctx)

	return &App{
		Config:   cfg,
		Log:      log,
		Slots:    slots,
		Catalog:  cat,
		AI:       ai,
		Search:   service.NewSearchService(ai, cat, log),
		Listings: listings,
		Previews: service.NewPreviewRegistry(cfg.Uploads.PreviewTTL, cfg.Uploads.MaxImageBytes, log),
		Geocoder: service.NewGeocoder(&cfg.Geocoding, log),
		Sessions: session.NewManager(configError, log),
	}, nil
}

// Close releases previews and storage
func (a *App) Close() error {
	if n := a.Previews.ReleaseAll(); n > 0 {
		a.Log.Info().Int("count", n).Msg("Released image previews")
	}
	return a.Slots.Close()
}

package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"propfinder/internal/model"
	"propfinder/internal/repository"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// DefaultListingSlotKey is the storage slot holding user-submitted listings
const DefaultListingSlotKey = "userPropertyListings"

// ListingStore keeps user-submitted listings in memory and mirrors them
// into a storage slot. Storage failures never reach the caller: they are
// logged and the in-memory collection stays authoritative.
type ListingStore struct {
	slots repository.SlotStore
	key   string
	log   zerolog.Logger

	mu       sync.RWMutex
	listings []model.Listing
}

// NewListingStore creates an empty store; call Load to read the persisted collection
func NewListingStore(slots repository.SlotStore, key string, log zerolog.Logger) *ListingStore {
	if key == "" {
		key = DefaultListingSlotKey
	}
	return &ListingStore{
		slots:    slots,
		key:      key,
		log:      log.With().Str("component", "listing_store").Logger(),
		listings: []model.Listing{},
	}
}

// Load replaces the in-memory collection with the persisted one.
// Absent, empty or malformed data yields an empty collection.
func (s *ListingStore) Load(ctx context.Context) []model.Listing {
	loaded := s.read(ctx)

	s.mu.Lock()
	s.listings = loaded
	s.mu.Unlock()

	s.log.Info().Int("count", len(loaded)).Msg("📦 Loaded user listings")
	return cloneListings(loaded)
}

func (s *ListingStore) read(ctx context.Context) []model.Listing {
	raw, found, err := s.slots.Get(ctx, s.key)
	if err != nil {
		s.log.Error().Err(err).Str("slot", s.key).Msg("Failed to read user listings")
		return []model.Listing{}
	}
	if !found || strings.TrimSpace(raw) == "" {
		return []model.Listing{}
	}

	var listings []model.Listing
	if err := json.Unmarshal([]byte(raw), &listings); err != nil {
		s.log.Error().Err(err).Str("slot", s.key).Msg("Discarding malformed user listings")
		return []model.Listing{}
	}

	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if !l.Valid() {
			continue
		}
		l.IsUserListing = true
		out = append(out, l)
	}
	if dropped := len(listings) - len(out); dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Str("slot", s.key).Msg("Skipping stored listings without title or description")
	}
	return out
}

// Save overwrites the slot with the whole in-memory collection
func (s *ListingStore) Save(ctx context.Context) {
	s.mu.RLock()
	snapshot := cloneListings(s.listings)
	s.mu.RUnlock()

	s.write(ctx, snapshot)
}

func (s *ListingStore) write(ctx context.Context, listings []model.Listing) {
	data, err := json.Marshal(listings)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode user listings")
		return
	}
	if err := s.slots.Set(ctx, s.key, string(data)); err != nil {
		s.log.Error().Err(err).Str("slot", s.key).Msg("Failed to save user listings")
	}
}

// Add turns a validated draft into a user listing, prepends it and persists the collection
func (s *ListingStore) Add(ctx context.Context, draft model.ListingDraft, imageDataURL string) model.Listing {
	listing := model.Listing{
		ID:            "user-" + xid.New().String(),
		Title:         draft.Title,
		Address:       draft.Address,
		Rent:          draft.Rent,
		Bedrooms:      draft.Bedrooms,
		Bathrooms:     draft.Bathrooms,
		Description:   draft.Description,
		ImageURL:      imageDataURL,
		ContactNumber: draft.ContactNumber,
		IsUserListing: true,
	}

	// write under the lock so concurrent adds reach the slot in order
	s.mu.Lock()
	s.listings = append([]model.Listing{listing}, s.listings...)
	snapshot := cloneListings(s.listings)
	s.write(ctx, snapshot)
	s.mu.Unlock()

	s.log.Info().Str("listing_id", listing.ID).Msg("✅ User listing added")
	return listing
}

// All returns a copy of the collection, most recent first
func (s *ListingStore) All() []model.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneListings(s.listings)
}

// Merge returns user listings followed by the given AI listings
func (s *ListingStore) Merge(aiListings []model.Listing) []model.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Listing, 0, len(s.listings)+len(aiListings))
	out = append(out, s.listings...)
	out = append(out, aiListings...)
	return out
}

func cloneListings(in []model.Listing) []model.Listing {
	return append(make([]model.Listing, 0, len(in)), in...)
}

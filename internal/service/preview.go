package service

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// ErrPreviewNotFound is returned for unknown, released or expired preview handles
var ErrPreviewNotFound = errors.New("preview not found")

// DefaultPreviewTTL is how long an unreleased preview is kept
const DefaultPreviewTTL = 30 * time.Minute

// Preview is an uploaded image held until the listing form is submitted or abandoned
type Preview struct {
	ID          string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// DataURL returns the preview as a base64 data URL
func (p Preview) DataURL() string {
	return DataURL(p.ContentType, p.Data)
}

// PreviewRegistry holds image previews under opaque handles.
// Every handle is released exactly once: explicitly, when superseded, or by the TTL sweep.
type PreviewRegistry struct {
	ttl      time.Duration
	maxBytes int64
	log      zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	previews map[string]Preview
}

// NewPreviewRegistry creates an empty registry
func NewPreviewRegistry(ttl time.Duration, maxBytes int64, log zerolog.Logger) *PreviewRegistry {
	if ttl <= 0 {
		ttl = DefaultPreviewTTL
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &PreviewRegistry{
		ttl:      ttl,
		maxBytes: maxBytes,
		log:      log.With().Str("component", "previews").Logger(),
		now:      time.Now,
		previews: make(map[string]Preview),
	}
}

// MaxBytes returns the upload limit the registry enforces
func (r *PreviewRegistry) MaxBytes() int64 {
	return r.maxBytes
}

// Acquire stores an image under a new handle. A non-empty replaces handle is
// released in the same step, so picking a new file never leaks the old one.
func (r *PreviewRegistry) Acquire(data []byte, contentType, replaces string) Preview {
	now := r.now()
	p := Preview{
		ID:          xid.New().String(),
		ContentType: contentType,
		Data:        data,
		CreatedAt:   now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked(now)
	if replaces != "" {
		delete(r.previews, replaces)
	}
	r.previews[p.ID] = p

	r.log.Debug().Str("preview_id", p.ID).Str("replaces", replaces).Int("size", len(data)).Msg("Preview acquired")
	return p
}

// Open returns a live preview
func (r *PreviewRegistry) Open(id string) (Preview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.previews[id]
	if !ok || r.expired(p, r.now()) {
		return Preview{}, ErrPreviewNotFound
	}
	return p, nil
}

// Release revokes a handle; releasing an unknown handle is a no-op
func (r *PreviewRegistry) Release(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.previews[id]; !ok {
		return false
	}
	delete(r.previews, id)
	return true
}

// ReleaseAll revokes every handle, used on shutdown
func (r *PreviewRegistry) ReleaseAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.previews)
	r.previews = make(map[string]Preview)
	return n
}

// Len returns the number of live handles
func (r *PreviewRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.previews)
}

func (r *PreviewRegistry) expired(p Preview, now time.Time) bool {
	return now.Sub(p.CreatedAt) > r.ttl
}

func (r *PreviewRegistry) sweepLocked(now time.Time) {
	for id, p := range r.previews {
		if r.expired(p, now) {
			delete(r.previews, id)
			r.log.Debug().Str("preview_id", id).Msg("Preview expired")
		}
	}
}

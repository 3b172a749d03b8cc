package handler

import (
	"errors"
	"net/http"

	"propfinder/internal/model"
	"propfinder/internal/service"
	"propfinder/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SessionHandler drives stateful search sessions: criteria editing and searches
type SessionHandler struct {
	sessions      *session.Manager
	searchService *service.SearchService
	listings      *service.ListingStore
	geocoder      *service.Geocoder
	log           zerolog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(
	sessions *session.Manager,
	searchService *service.SearchService,
	listings *service.ListingStore,
	geocoder *service.Geocoder,
	log zerolog.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessions:      sessions,
		searchService: searchService,
		listings:      listings,
		geocoder:      geocoder,
		log:           log.With().Str("component", "session_handler").Logger(),
	}
}

// Register mounts the session routes
func (h *SessionHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.Create)

	s := rg.Group("/sessions/:id")
	{
		s.GET("", h.Get)
		s.DELETE("", h.Delete)
		s.PUT("/property-type", h.SetPropertyType)
		s.POST("/amenities/:category/:amenityId/toggle", h.ToggleAmenity)
		s.PUT("/location", h.SetLocation)
		s.PUT("/pin", h.SetPin)
		s.DELETE("/pin", h.ClearPin)
		s.POST("/geocode", h.Geocode)
		s.PUT("/prompt", h.SetPrompt)
		s.POST("/clear", h.Clear)
		s.POST("/search", h.Search)
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	c.JSON(http.StatusCreated, h.view(h.sessions.Create()))
}

// Get handles GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

// Delete handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetPropertyType handles PUT /api/v1/sessions/:id/property-type
func (h *SessionHandler) SetPropertyType(c *gin.Context) {
	var req model.PropertyTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	h.update(c, func(cr model.Criteria) (model.Criteria, error) {
		return cr.WithPropertyType(req.PropertyType), nil
	})
}

// ToggleAmenity handles POST /api/v1/sessions/:id/amenities/:category/:amenityId/toggle
func (h *SessionHandler) ToggleAmenity(c *gin.Context) {
	category, err := model.ParseAmenityCategory(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("amenityId")
	h.update(c, func(cr model.Criteria) (model.Criteria, error) {
		return cr.ToggleAmenity(category, id)
	})
}

// SetLocation handles PUT /api/v1/sessions/:id/location
func (h *SessionHandler) SetLocation(c *gin.Context) {
	var req model.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	h.update(c, func(cr model.Criteria) (model.Criteria, error) {
		return cr.WithLocationQuery(req.Query), nil
	})
}

// SetPin handles PUT /api/v1/sessions/:id/pin
func (h *SessionHandler) SetPin(c *gin.Context) {
	var req model.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	pin := model.LatLng{Lat: *req.Lat, Lng: *req.Lng}
	if err := pin.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.update(c, func(cr model.Criteria) (model.Criteria, error) {
		return cr.WithPinnedLocation(pin)
	})
}

// ClearPin handles DELETE /api/v1/sessions/:id/pin
func (h *SessionHandler) ClearPin(c *gin.Context) {
	h.update(c, func(cr model.Criteria) (model.Criteria, error) {
		return cr.WithoutPin(), nil
	})
}

// Geocode handles POST /api/v1/sessions/:id/geocode.
// The location query is resolved and, when found, becomes the pinned location.
func (h *SessionHandler) Geocode(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !h.geocoder.IsEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Geocoding is not enabled"})
		return
	}

	loc, found, err := h.geocoder.Lookup(c.Request.Context(), s.Criteria.LocationQuery)
	if err != nil {
		h.log.Error().Err(err).Str("query", s.Criteria.LocationQuery).Msg("Geocoding failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Geocoding failed: " + err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found: " + s.Criteria.LocationQuery})
		return
	}
	h.update(c, func(cr model.Criteria) (model.Criteria, error) {
		return cr.WithPinnedLocation(loc)
	})
}

// SetPrompt handles PUT /api/v1/sessions/:id/prompt
func (h *SessionHandler) SetPrompt(c *gin.Context) {
	var req model.PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	h.update(c, func(cr model.Criteria) (model.Criteria, error) {
		return cr.WithAIPrompt(req.Prompt), nil
	})
}

// Clear handles POST /api/v1/sessions/:id/clear
func (h *SessionHandler) Clear(c *gin.Context) {
	s, err := h.sessions.Clear(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

// Search handles POST /api/v1/sessions/:id/search.
// Only the result of the most recently started search is kept.
func (h *SessionHandler) Search(c *gin.Context) {
	id := c.Param("id")
	seq, criteria, err := h.sessions.BeginSearch(id)
	if err != nil {
		h.fail(c, err)
		return
	}

	result := h.searchService.Search(c.Request.Context(), criteria)

	applied, err := h.sessions.FinishSearch(id, seq, result)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !applied {
		h.log.Debug().Str("session_id", id).Uint64("seq", seq).Msg("Search superseded")
	}

	s, err := h.sessions.Get(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

func (h *SessionHandler) update(c *gin.Context, fn func(model.Criteria) (model.Criteria, error)) {
	s, err := h.sessions.Update(c.Param("id"), fn)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

func (h *SessionHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *SessionHandler) view(s session.Session) model.SessionView {
	return model.SessionView{
		ID:                 s.ID,
		Criteria:           s.Criteria,
		Listings:           h.listings.Merge(s.Result.Listings),
		SourceAttributions: s.Result.GroundingChunks,
		Error:              s.Result.Error,
		Warning:            s.Result.Warning,
		SearchEnabled:      h.sessions.SearchEnabled(),
		SearchSeq:          s.Seq(),
	}
}

package handler

import (
	"errors"
	"net/http"

	"propfinder/internal/model"
	"propfinder/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"
)

// ListingHandler handles user-submitted listings
type ListingHandler struct {
	listings *service.ListingStore
	previews *service.PreviewRegistry
	log      zerolog.Logger
}

// NewListingHandler creates a new listing handler
func NewListingHandler(listings *service.ListingStore, previews *service.PreviewRegistry, log zerolog.Logger) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		previews: previews,
		log:      log.With().Str("component", "listing_handler").Logger(),
	}
}

// Register mounts the listing routes
func (h *ListingHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/listings", h.List)
	rg.POST("/listings", h.Create)
}

// List handles GET /api/v1/listings
func (h *ListingHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"listings": h.listings.All()})
}

// Create handles POST /api/v1/listings.
// The image comes either as a multipart "image" file or as the previewId of
// an earlier upload. A referenced preview is released on every exit path.
func (h *ListingHandler) Create(c *gin.Context) {
	var draft model.ListingDraft

	b := binding.Default(c.Request.Method, c.ContentType())
	// binding decodes before it validates, so PreviewID is known even when validation fails
	bindErr := c.ShouldBindWith(&draft, b)
	if draft.PreviewID != "" {
		defer h.previews.Release(draft.PreviewID)
	}
	if bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + bindErr.Error()})
		return
	}

	imageDataURL, err := h.imageFor(c, draft.PreviewID)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrPreviewNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	listing := h.listings.Add(c.Request.Context(), draft, imageDataURL)
	c.JSON(http.StatusCreated, listing)
}

// errImageRequired is returned when neither an upload nor a preview was supplied
var errImageRequired = errors.New("an image is required: upload an image file or reference a preview")

func (h *ListingHandler) imageFor(c *gin.Context, previewID string) (string, error) {
	if file, err := c.FormFile("image"); err == nil {
		f, err := file.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		return service.EncodeImageDataURL(f, h.previews.MaxBytes())
	}

	if previewID == "" {
		return "", errImageRequired
	}
	p, err := h.previews.Open(previewID)
	if err != nil {
		return "", err
	}
	return p.DataURL(), nil
}

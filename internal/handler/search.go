package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"propfinder/internal/model"
	"propfinder/internal/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles stateless search requests
type SearchHandler struct {
	searchService *service.SearchService
	listings      *service.ListingStore
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService, listings *service.ListingStore) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		listings:      listings,
	}
}

// Register mounts the search routes
func (h *SearchHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/search", h.Search)
	rg.POST("/search/stream", h.SearchStream)
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var criteria model.Criteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if criteria.PinnedLocation != nil {
		if err := criteria.PinnedLocation.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	start := time.Now()
	result := h.searchService.Search(c.Request.Context(), criteria.Normalize())

	c.JSON(http.StatusOK, h.response(result, time.Since(start)))
}

// SearchStream handles POST /api/v1/search/stream - SSE streaming search
func (h *SearchHandler) SearchStream(c *gin.Context) {
	var criteria model.Criteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if criteria.PinnedLocation != nil {
		if err := criteria.PinnedLocation.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}
	criteria = criteria.Normalize()

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	start := time.Now()
	sendSSE(c, "start", gin.H{"criteria": criteria})
	flusher.Flush()

	result := h.searchService.SearchStream(c.Request.Context(), criteria, func(event string, data any) error {
		if err := c.Request.Context().Err(); err != nil {
			return err
		}
		sendSSE(c, event, data)
		flusher.Flush()
		return nil
	})

	sendSSE(c, "results", h.response(result, time.Since(start)))
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// response puts user listings in front of the AI listings
func (h *SearchHandler) response(result model.SearchResult, took time.Duration) model.SearchResponse {
	return model.SearchResponse{
		Listings:           h.listings.Merge(result.Listings),
		SourceAttributions: result.GroundingChunks,
		Error:              result.Error,
		Warning:            result.Warning,
		Took:               took.Milliseconds(),
	}
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}

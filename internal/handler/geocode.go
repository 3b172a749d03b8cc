package handler

import (
	"net/http"
	"strings"

	"propfinder/internal/model"
	"propfinder/internal/service"

	"github.com/gin-gonic/gin"
)

// GeocodeHandler resolves free-text locations to coordinates
type GeocodeHandler struct {
	geocoder *service.Geocoder
}

// NewGeocodeHandler creates a new geocode handler
func NewGeocodeHandler(geocoder *service.Geocoder) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// Register mounts the geocoding route
func (h *GeocodeHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/geocode", h.Lookup)
}

// Lookup handles GET /api/v1/geocode?q=
func (h *GeocodeHandler) Lookup(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
		return
	}
	if !h.geocoder.IsEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Geocoding is not enabled"})
		return
	}

	loc, found, err := h.geocoder.Lookup(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Geocoding failed: " + err.Error()})
		return
	}

	resp := model.GeocodeResponse{Query: query, Found: found}
	if found {
		resp.Location = &loc
	}
	c.JSON(http.StatusOK, resp)
}

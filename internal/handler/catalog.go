package handler

import (
	"net/http"

	"propfinder/internal/catalog"
	"propfinder/internal/model"

	"github.com/gin-gonic/gin"
)

// CatalogHandler exposes the selectable property types and amenities
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// Register mounts the catalog route
func (h *CatalogHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/catalog", h.Get)
}

// Get handles GET /api/v1/catalog
func (h *CatalogHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"propertyTypes":    h.catalog.PropertyTypes(),
		"safetyAmenities":  h.catalog.Amenities(model.CategorySafety),
		"utilityAmenities": h.catalog.Amenities(model.CategoryUtility),
	})
}

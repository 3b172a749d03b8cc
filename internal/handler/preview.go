package handler

import (
	"errors"
	"net/http"

	"propfinder/internal/model"
	"propfinder/internal/service"

	"github.com/gin-gonic/gin"
)

// PreviewHandler handles image preview handles for the add-listing form
type PreviewHandler struct {
	previews *service.PreviewRegistry
}

// NewPreviewHandler creates a new preview handler
func NewPreviewHandler(previews *service.PreviewRegistry) *PreviewHandler {
	return &PreviewHandler{previews: previews}
}

// Register mounts the preview routes
func (h *PreviewHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/previews", h.Upload)
	rg.GET("/previews/:id", h.Get)
	rg.DELETE("/previews/:id", h.Release)
}

// Upload handles POST /api/v1/previews.
// An optional "replaces" form field names the preview this upload supersedes.
func (h *PreviewHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: image file is required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	defer f.Close()

	data, contentType, err := service.ReadImage(f, h.previews.MaxBytes())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrInvalidImage) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	p := h.previews.Acquire(data, contentType, c.PostForm("replaces"))
	c.JSON(http.StatusCreated, model.PreviewResponse{
		ID:          p.ID,
		URL:         "/api/v1/previews/" + p.ID,
		ContentType: p.ContentType,
		Size:        len(p.Data),
	})
}

// Get handles GET /api/v1/previews/:id
func (h *PreviewHandler) Get(c *gin.Context) {
	p, err := h.previews.Open(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preview not found"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, p.ContentType, p.Data)
}

// Release handles DELETE /api/v1/previews/:id
func (h *PreviewHandler) Release(c *gin.Context) {
	if !h.previews.Release(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preview not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// setupStaticFiles answers non-API routes; the frontend is served separately
func setupStaticFiles(router *gin.Engine, log zerolog.Logger) {
	log.Info().Msg("🔧 Frontend is served separately")

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Frontend is running separately",
			"dev_url": "http://localhost:3000",
			"api":     "/api/v1",
		})
	})
}

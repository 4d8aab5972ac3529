package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *Handlers) {
	// API group
	api := r.Group("/api")

	// Health
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Search
	api.GET("/search", h.Search)

	// Catalog
	api.POST("/catalog/extract", h.TriggerExtract)
	api.GET("/catalog/index", h.GetProjectIndex)

	// Archive
	api.GET("/archive/sessions", h.ListArchivedSessions)
	api.GET("/archive/sessions/:id", h.GetArchivedManifest)
	api.GET("/archive/stats", h.GetArchiveStats)
}

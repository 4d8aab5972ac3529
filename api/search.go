package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jacqueshq/jacques/search"
)

// SearchResponse represents the search API response
type SearchResponse struct {
	Results []search.Result `json:"results"`
	Total   int             `json:"total"`
	Query   string          `json:"query"`
	TookMs  int64           `json:"tookMs"`
}

// Search handles GET /api/search
func (h *Handlers) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		RespondBadRequest(c, "query parameter 'q' is required")
		return
	}

	filters := search.Filters{
		Project:    c.Query("project"),
		Technology: c.Query("tech"),
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filters.Limit = limit
		}
	}

	start := time.Now()
	results := h.store.SearchConversations(query, filters)
	if results == nil {
		results = []search.Result{}
	}

	RespondData(c, SearchResponse{
		Results: results,
		Total:   len(results),
		Query:   query,
		TookMs:  time.Since(start).Milliseconds(),
	})
}

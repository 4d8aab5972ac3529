package api

import (
	"github.com/gin-gonic/gin"
)

// ListArchivedSessions handles GET /api/archive/sessions.
// With ?grouped=1 the sessions are grouped by project name.
func (h *Handlers) ListArchivedSessions(c *gin.Context) {
	if c.Query("grouped") == "1" {
		grouped, err := h.store.ListSessionsByProject()
		if err != nil {
			RespondInternalError(c, err.Error())
			return
		}
		RespondData(c, grouped)
		return
	}

	sessions, err := h.store.ListSessions()
	if err != nil {
		RespondInternalError(c, err.Error())
		return
	}
	RespondList(c, sessions)
}

// GetArchivedManifest handles GET /api/archive/sessions/:id
func (h *Handlers) GetArchivedManifest(c *gin.Context) {
	m, err := h.store.GetManifest(c.Param("id"))
	if err != nil {
		RespondNotFound(c, "archived session not found")
		return
	}
	RespondData(c, m)
}

// GetArchiveStats handles GET /api/archive/stats
func (h *Handlers) GetArchiveStats(c *gin.Context) {
	stats, err := h.store.Stats()
	if err != nil {
		RespondInternalError(c, err.Error())
		return
	}
	RespondData(c, stats)
}

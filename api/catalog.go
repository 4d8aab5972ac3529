package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jacqueshq/jacques/catalog"
	"github.com/jacqueshq/jacques/log"
)

// ExtractRequest triggers a catalog extraction run.
type ExtractRequest struct {
	// Project is a project directory under the configured projects root;
	// empty means all projects.
	Project string `json:"project"`
	Force   bool   `json:"force"`
}

// TriggerExtract handles POST /api/catalog/extract. Extraction runs in the
// background; the response carries the aggregate once known via logs, the
// caller polls the catalog afterwards.
func (h *Handlers) TriggerExtract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "invalid request body")
		return
	}

	opts := catalog.BulkOptions{Force: req.Force}

	go func() {
		var result catalog.BulkResult
		if req.Project != "" {
			result = h.catalog.ExtractProjectCatalog(req.Project, opts)
		} else {
			result = h.catalog.ExtractAllCatalogs(h.cfg.ProjectsDir, opts)
		}
		log.Info().
			Str("runId", result.RunID).
			Int("extracted", result.Extracted).
			Int("skipped", result.Skipped).
			Int("errors", result.Errors).
			Msg("extraction run finished")
	}()

	RespondAccepted(c, gin.H{"status": "extracting"})
}

// GetProjectIndex handles GET /api/catalog/index?project=DIR
func (h *Handlers) GetProjectIndex(c *gin.Context) {
	project := c.Query("project")
	if project == "" {
		RespondBadRequest(c, "query parameter 'project' is required")
		return
	}

	RespondData(c, catalog.ReadProjectIndex(project))
}

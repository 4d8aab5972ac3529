package api

import (
	"github.com/jacqueshq/jacques/archive"
	"github.com/jacqueshq/jacques/catalog"
	"github.com/jacqueshq/jacques/config"
)

// Handlers holds the service dependencies for all API endpoints.
type Handlers struct {
	cfg     *config.Config
	catalog *catalog.Service
	store   *archive.Store
}

// NewHandlers creates the handler set.
func NewHandlers(cfg *config.Config, catalogSvc *catalog.Service, store *archive.Store) *Handlers {
	return &Handlers{
		cfg:     cfg,
		catalog: catalogSvc,
		store:   store,
	}
}

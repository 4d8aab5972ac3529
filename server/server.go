package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jacqueshq/jacques/api"
	"github.com/jacqueshq/jacques/archive"
	"github.com/jacqueshq/jacques/catalog"
	"github.com/jacqueshq/jacques/config"
	"github.com/jacqueshq/jacques/log"
)

// Server owns and coordinates all application components
type Server struct {
	cfg *config.Config

	// Components (owned by server)
	catalogSvc *catalog.Service
	store      *archive.Store

	// HTTP
	router *gin.Engine
	http   *http.Server
}

// New creates a new server with all components initialized
func New(cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	log.Info().Str("settings", cfg.SettingsPath).Msg("loading user settings")
	settings := config.LoadUserSettings(cfg.SettingsPath)
	s.catalogSvc = catalog.NewService(settings)

	log.Info().Str("root", cfg.ArchiveDir).Msg("opening archive store")
	store, err := archive.NewStore(cfg.ArchiveDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive store: %w", err)
	}
	s.store = store

	s.setupRouter()

	log.Info().Msg("server initialized successfully")
	return s, nil
}

// setupRouter creates and configures the Gin router
func (s *Server) setupRouter() {
	// Set Gin mode
	if !s.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	s.router = gin.New()

	// Middleware
	s.router.Use(gin.Recovery())
	s.router.Use(log.GinLogger())
	s.router.Use(gzip.Gzip(gzip.DefaultCompression))

	handlers := api.NewHandlers(s.cfg, s.catalogSvc, s.store)
	api.SetupRoutes(s.router, handlers)
}

// Start runs the HTTP server until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Info().
		Str("addr", addr).
		Str("env", s.cfg.Env).
		Msg("server starting")

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown() error {
	if s.http == nil {
		return nil
	}

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return s.http.Shutdown(ctx)
}

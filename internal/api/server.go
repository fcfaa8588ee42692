package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openclaims/kestrel/internal/domain"
	"github.com/openclaims/kestrel/internal/lifecycle"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, controller *lifecycle.Controller, statsTTL time.Duration, version string) *Server {
	handler := NewHandler(repo, cache, controller, statsTTL, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no org required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (org required)
	router.Route("/", func(r chi.Router) {
		r.Use(OrgMiddleware)

		r.Get("/claims", handler.ListClaims)
		r.Get("/claims/export", handler.ExportClaims)
		r.Get("/claims/{ref}", handler.GetClaim)
		r.Get("/claims/{ref}/audit", handler.GetAuditTrail)
		r.Get("/stats", handler.GetStats)

		// Mutations need an identified analyst for the audit trail
		r.Group(func(r chi.Router) {
			r.Use(RequireAnalyst)

			r.Post("/claims", handler.CreateClaim)
			r.Post("/claims/{ref}/review", handler.ReviewClaim)
			r.Post("/claims/{ref}/approve", handler.ApproveClaim)
			r.Post("/claims/{ref}/reject", handler.RejectClaim)
		})

		// Forbidden by policy; kept routable so clients get 403, not 405
		r.Patch("/claims/{ref}/fields", handler.ForbidFieldEdit)
		r.Post("/claims/{ref}/rescore", handler.ForbidRescore)
		r.Post("/claims/{ref}/override", handler.ForbidOverride)
		r.Patch("/claims/{ref}/status", handler.ForbidStatusEdit)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}

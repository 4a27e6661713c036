package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/catalog"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/engine"
)

const maxBodyBytes = 8 << 20

// Server encapsulates the HTTP API server
type Server struct {
	engine  *engine.Engine
	catalog *catalog.Catalog
	logger  *zap.Logger
	server  *http.Server

	corsOrigins    []string
	requestTimeout time.Duration
}

type Option func(*Server)

// WithCORSOrigins allows browser clients from origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithRequestTimeout bounds each request, upstream calls included.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.requestTimeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new API server instance
func NewServer(eng *engine.Engine, cat *catalog.Catalog, addr string, opts ...Option) *Server {
	s := &Server{
		engine:         eng,
		catalog:        cat,
		logger:         zap.NewNop(),
		corsOrigins:    []string{"http://localhost:*", "http://127.0.0.1:*"},
		requestTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Use default port if addr is empty
	if addr == "" {
		addr = "127.0.0.1:8090"
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.requestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(withTrace)
	r.Use(withLogging(s.logger))
	r.Use(withRecovery(s.logger))
	r.Use(withSecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Trace-ID"},
		ExposedHeaders: []string{"X-Trace-ID"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(withMetrics)
		r.Use(chimiddleware.Timeout(s.requestTimeout))

		r.Get("/health", s.handleHealth)

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Post("/", s.handleCreateSnapshot)
			r.Post("/import", s.handleImportSnapshot)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSnapshot)
				r.Delete("/", s.handleDeleteSnapshot)
				r.Get("/export", s.handleExportSnapshot)
				r.Post("/archive", s.handleArchiveSnapshot)
				r.Post("/load", s.handleLoadSnapshot)
			})
		})

		r.Get("/archive", s.handleListArchive)
		r.Post("/archive/restore", s.handleRestoreArchive)

		r.Route("/state", func(r chi.Router) {
			r.Get("/", s.handleGetState)
			r.Put("/page", s.handleSetPage)
			r.Put("/edge-labels", s.handleSetEdgeLabels)
			r.Put("/highlights", s.handleSetHighlights)
			r.Delete("/highlights", s.handleClearHighlights)
			r.Delete("/", s.handleResetState)
		})

		r.Post("/algorithms/{key}", s.handleRunAlgorithm)
		r.Post("/algorithms/{key}/highlight", s.handleHighlight)

		r.Get("/scenarios", s.handleListScenarios)
		r.Get("/scenarios/{name}", s.handleGetScenario)
		r.Get("/concepts", s.handleListConcepts)
		r.Get("/explanations", s.handleListExplanations)
		r.Get("/explanations/{key}", s.handleGetExplanation)

		r.Get("/reports/{type}", s.handleReport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})
	return r
}

// Handler exposes the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start runs the HTTP server (blocking)
func (s *Server) Start() error {
	s.logger.Info("server_starting", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("server_stopping")
	return s.server.Shutdown(ctx)
}

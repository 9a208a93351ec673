// Package server provides the kotae web front end and JSON API.
package server

import (
	"context"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/accounts"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/session"
)

// Server is the HTTP server for kotae.
type Server struct {
	pipeline  *rag.Pipeline
	accounts  *accounts.Service
	sessions  session.Store
	extractor *extract.Extractor
	config    *config.Config
	logger    *zap.Logger
	pages     *template.Template
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	pipeline *rag.Pipeline,
	accts *accounts.Service,
	sessions session.Store,
	extractor *extract.Extractor,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		pipeline:  pipeline,
		accounts:  accts,
		sessions:  sessions,
		extractor: extractor,
		config:    cfg,
		logger:    logger,
		pages:     parsePages(),
	}
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.Server.RequestTimeout.Duration))
	r.Use(s.loadSession)

	r.Get("/", s.handleIndex)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/register", s.handleRegisterPage)
	r.Post("/register", s.handleRegister)
	r.Get("/logout", s.handleLogout)
	r.Post("/ask", s.handleAskForm)
	r.Get("/admin/dependencies", s.handleDependencies)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.With(s.requireUserJSON).Post("/ask", s.handleAsk)
		r.Get("/status", s.handleStatus)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout.Duration,
		WriteTimeout: s.config.Server.WriteTimeout.Duration,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

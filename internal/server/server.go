// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where handlers,
// services, repositories, and middleware are assembled and mapped to URL
// patterns. Keeping it out of main.go makes the wiring testable and keeps
// main minimal.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sidequesthq/sidequesthq/internal/auth"
	"github.com/sidequesthq/sidequesthq/internal/handler"
	"github.com/sidequesthq/sidequesthq/internal/middleware"
	sqliteRepo "github.com/sidequesthq/sidequesthq/internal/repository/sqlite"
	"github.com/sidequesthq/sidequesthq/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port               int
	DBPath             string
	SessionSecret      string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	SecureCookies      bool // true behind HTTPS; controls the cookie Secure flag
}

// Server owns the router and the resources that must be released on
// shutdown (the database connection).
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services. Nothing below the handler layer knows
// HTTP exists.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /auth/github/login     → redirect to GitHub (public)
//	GET    /auth/github/callback  → OAuth callback (public)
//	POST   /auth/logout           → clear session cookie (public)
//	GET    /api/session           → current session or 401
//	GET    /api/stats             → public profile stats (public)
//	POST   /api/session/refresh   → extend session        (session required)
//	GET    /api/me                → own profile           (session required)
//	PUT    /api/profile           → profile settings      (session required)
//	CRUD   /api/projects[/{id}]   → projects              (session required)
//	GET    /api/github/repos      → import picker         (session required)
//	POST   /api/github/import     → run an import         (session required)
//
// MIDDLEWARE ORDER MATTERS: RequestID and RealIP first so the logger sees
// them, Recoverer before anything that can panic, then our request logger.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	sessions, err := auth.NewSessionService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating session service: %w", err)
	}
	provider := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)

	users := s.db.Users()
	projects := s.db.Projects()

	authService := service.NewAuthService(users, sessions, s.logger)
	projectService := service.NewProjectService(projects, users, s.logger)
	importService := service.NewImportService(projects, users, s.logger)

	authHandler := handler.NewAuthHandler(provider, sessions, authService, s.logger, s.config.SecureCookies)
	projectHandler := handler.NewProjectHandler(projectService, s.logger)
	githubHandler := handler.NewGitHubHandler(importService, s.logger)
	profileHandler := handler.NewProfileHandler(authService, projectService, s.logger)

	// OAuth flow — necessarily public.
	s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
	s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	s.router.Route("/api", func(r chi.Router) {
		// Public API: session introspection and the shareable stats page.
		// OptionalSession populates the context when a valid cookie is
		// present but never turns anonymous visitors away.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalSession(sessions))

			r.Get("/session", authHandler.HandleSession)
			r.Get("/stats", profileHandler.HandleStats)
		})

		// Everything else requires a valid session cookie.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(sessions))

			r.Post("/session/refresh", authHandler.HandleRefresh)
			r.Get("/me", profileHandler.HandleMe)
			r.Put("/profile", profileHandler.HandleUpdateProfile)

			r.Get("/projects", projectHandler.HandleList)
			r.Post("/projects", projectHandler.HandleCreate)
			r.Get("/projects/{id}", projectHandler.HandleGet)
			r.Put("/projects/{id}", projectHandler.HandleUpdate)
			r.Delete("/projects/{id}", projectHandler.HandleDelete)

			r.Get("/github/repos", githubHandler.HandleListRepos)
			r.Post("/github/import", githubHandler.HandleImport)
		})
	})

	return nil
}

// Start runs the HTTP server until a shutdown signal arrives.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the database connection (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

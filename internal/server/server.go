// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal — just "start the server")
//
// This is the "composition root" pattern — all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
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
	"github.com/go-chi/cors"

	"github.com/sakif/snippetshare/internal/assist"
	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/handler"
	"github.com/sakif/snippetshare/internal/middleware"
	sqliteRepo "github.com/sakif/snippetshare/internal/repository/sqlite"
	"github.com/sakif/snippetshare/internal/service"
)

// Config holds server configuration.
// Using a struct for config (instead of individual parameters) makes it easy to:
// - Add new config options without changing function signatures
// - Pass config around as a single value
// - Load config from files/env vars in one place
type Config struct {
	Port   int
	DBPath string

	JWTSecret string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	GeminiAPIKey string
	GeminiModel  string

	// AI call budget: AIBudgetCalls requests per AIBudgetWindow, shared
	// across all assist endpoints. Zero values fall back to the defaults.
	AIBudgetCalls  int
	AIBudgetWindow time.Duration

	// AllowedOrigins for CORS. Empty means same-origin only.
	AllowedOrigins []string
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection (db). When the server shuts down,
// we must close it to flush any pending writes and release the file lock.
// This is handled in Start() during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a new Server with the given config.
//
// DEPENDENCY INJECTION & WIRING:
// This is where the entire dependency chain is assembled:
//  1. Create the database connection (sqlite.New)
//  2. Create the service layer with the DB
//  3. Create the handlers with the services
//  4. Wire handlers to routes
//
// Each layer only receives what it needs:
// - Services get repository interfaces (not the concrete sqlite.DB)
// - Handlers get services (not repositories or the DB)
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
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

	if err := s.setupRoutes(ctx); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /auth/signup               → register email/password account
//	POST   /auth/signin               → sign in with email/password
//	POST   /auth/anonymous            → mint a throwaway session
//	GET    /auth/google/login         → start Google OAuth flow
//	GET    /auth/google/callback      → finish Google OAuth flow
//	POST   /auth/logout               → clear the session cookie
//
//	GET    /api/feed                  → ranked feed (viewer-aware if signed in)
//	GET    /api/snippets/search       → text search
//	GET    /api/snippets/tag/{tag}    → tag search
//	GET    /api/tags/popular          → most-used tags
//	GET    /api/snippets/{id}         → single snippet
//
//	POST   /api/snippets              → publish (auth)
//	PUT    /api/snippets/{id}         → edit own snippet (auth)
//	DELETE /api/snippets/{id}         → delete own snippet (auth)
//	POST   /api/snippets/{id}/vote    → toggle vote (auth)
//	GET    /api/my/snippets           → own snippets (auth)
//	GET    /api/my/stats              → own aggregate stats (auth)
//	GET    /api/me                    → own profile (auth)
//	PATCH  /api/me                    → edit own profile (auth)
//	POST   /api/assist/*              → AI helpers (auth)
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID — assigns unique ID to each request (for tracing)
// 2. RealIP — extracts real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. CORS — before routing so preflights get answered
// 5. Logger — logs each request with timing info
func (s *Server) setupRoutes(ctx context.Context) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)

	allowed := s.config.AllowedOrigins
	if len(allowed) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowed,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true, // the session rides an HttpOnly cookie
			MaxAge:           300,
		}))
	}

	s.router.Use(middleware.Logger(s.logger))

	// === Auth plumbing ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()
	google := auth.NewGoogleProvider(
		s.config.GoogleClientID,
		s.config.GoogleClientSecret,
		s.config.GoogleCallbackURL,
	)

	// === Repositories & Services ===
	// DEPENDENCY CHAIN:
	//   per-entity sqlite stores share s.db's connection pool;
	//   services receive the repository interfaces, handlers the services.
	profileStore := sqliteRepo.NewProfileStore(s.db)
	snippetStore := sqliteRepo.NewSnippetStore(s.db)
	voteStore := sqliteRepo.NewVoteStore(s.db)
	feedStore := sqliteRepo.NewFeedStore(s.db)

	profileService := service.NewProfileService(profileStore, s.logger)
	authService := service.NewAuthService(profileService, tokens, passwords, s.logger)
	snippetService := service.NewSnippetService(snippetStore, profileStore, s.logger)
	voteService := service.NewVoteService(voteStore, snippetStore, s.logger)
	feedService := service.NewFeedService(feedStore, s.logger)

	// === AI assistant ===
	// A missing Gemini key must not take down the rest of the API: the
	// server still starts, and the assist routes answer 503 instead.
	// assistHandler == nil below means "run degraded".
	var assistHandler *handler.AssistHandler
	if s.config.GeminiAPIKey != "" {
		gemini, err := assist.NewGeminiClient(ctx, s.config.GeminiAPIKey, s.config.GeminiModel)
		if err != nil {
			return fmt.Errorf("creating Gemini client: %w", err)
		}
		budget := assist.DefaultBudget()
		if s.config.AIBudgetCalls > 0 && s.config.AIBudgetWindow > 0 {
			budget = assist.NewBudget(s.config.AIBudgetCalls, s.config.AIBudgetWindow)
		}
		assistant := assist.NewAssistant(gemini, budget, s.logger)
		assistHandler = handler.NewAssistHandler(assistant, s.logger)
	} else {
		s.logger.Warn("no Gemini API key configured; assist endpoints will answer 503")
	}

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, profileService, google, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	voteHandler := handler.NewVoteHandler(voteService, s.logger)
	feedHandler := handler.NewFeedHandler(feedService, s.logger)

	// === Auth Routes (no session required) ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignUp)
		r.Post("/signin", authHandler.HandleSignIn)
		r.Post("/anonymous", authHandler.HandleAnonymous)
		r.Get("/google/login", authHandler.HandleGoogleLogin)
		r.Get("/google/callback", authHandler.HandleGoogleCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		// --- Public routes (OptionalAuth) ---
		// The feed is readable without a session; a valid cookie upgrades
		// the response with the viewer's vote status. Invalid tokens are
		// treated as anonymous, never rejected.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/feed", feedHandler.HandleFeed)
			r.Get("/snippets/search", feedHandler.HandleSearch)
			r.Get("/snippets/tag/{tag}", feedHandler.HandleSearchByTag)
			r.Get("/tags/popular", feedHandler.HandlePopularTags)
			r.Get("/snippets/{id}", snippetHandler.HandleGetByID)
		})

		// --- Protected routes (RequireAuth) ---
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)
			r.Patch("/me", authHandler.HandleUpdateMe)

			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
			r.Post("/snippets/{id}/vote", voteHandler.HandleToggle)

			r.Get("/my/snippets", snippetHandler.HandleListMine)
			r.Get("/my/stats", snippetHandler.HandleStats)

			r.Route("/assist", func(r chi.Router) {
				if assistHandler == nil {
					for _, path := range []string{"/tags", "/analyze", "/improve", "/language", "/describe"} {
						r.Post(path, handler.HandleAssistUnavailable)
					}
					return
				}
				r.Post("/tags", assistHandler.HandleSuggestTags)
				r.Post("/analyze", assistHandler.HandleAnalyze)
				r.Post("/improve", assistHandler.HandleImprove)
				r.Post("/language", assistHandler.HandleDetectLanguage)
				r.Post("/describe", assistHandler.HandleDescribe)
			})
		})
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
//
// If we skip step 3, the database file might be left in an inconsistent state.
// The `defer s.db.Close()` ensures this happens even if something panics.
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

		// Give in-flight requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Package main is the entry point for the snippet sharing server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal — its job is to:
// 1. Read configuration (from env vars, flags, or config files)
// 2. Create dependencies (logger, database connections, etc.)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
// This separation makes the app testable and its components reusable.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/snippetshare/internal/server"
)

func main() {
	// Load .env if present. Real environments set variables directly; the
	// file is a local-dev convenience, so a missing file is not an error.
	_ = godotenv.Load()

	// === 1. SET UP LOGGING ===
	// slog.New creates a structured logger. slog.NewTextHandler outputs human-readable logs.
	// Log levels (from least to most severe): Debug → Info → Warn → Error
	// In production, you'd use LevelInfo or LevelWarn to reduce noise.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// === 2. READ CONFIGURATION ===
	// os.Getenv returns "" if the variable isn't set, so we check and provide
	// a default where one makes sense.
	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	// === 3. DATABASE PATH ===
	// DB_PATH env var allows overriding for production deployments.
	// Example: DB_PATH=/var/lib/snippetshare/prod.db
	dbPath := "data/snippetshare.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	// Ensure the data directory exists.
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. AUTH CONFIGURATION ===
	// JWT_SECRET must be a long random string. Use:
	//   JWT_SECRET=$(openssl rand -hex 32)
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET not set — refusing to start without a signing key")
		os.Exit(1)
	}

	googleClientID := os.Getenv("GOOGLE_CLIENT_ID")
	googleClientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	googleCallbackURL := os.Getenv("GOOGLE_CALLBACK_URL")
	if googleCallbackURL == "" {
		googleCallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", port)
	}
	if googleClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID not set — Google sign-in will fail")
	}

	// === 5. AI ASSISTANT CONFIGURATION ===
	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set — AI assist endpoints will answer 503")
	}
	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-2.0-flash"
	}

	aiBudgetCalls := 0
	if v := os.Getenv("AI_BUDGET_CALLS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			logger.Error("invalid AI_BUDGET_CALLS value", slog.String("value", v))
			os.Exit(1)
		}
		aiBudgetCalls = n
	}
	var aiBudgetWindow time.Duration
	if v := os.Getenv("AI_BUDGET_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Error("invalid AI_BUDGET_WINDOW value", slog.String("value", v))
			os.Exit(1)
		}
		aiBudgetWindow = d
	}

	// CORS_ORIGINS is a comma-separated list, e.g.
	//   CORS_ORIGINS=http://localhost:3000,https://app.example.com
	var allowedOrigins []string
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins = append(allowedOrigins, origin)
			}
		}
	}

	// === 6. CREATE AND START THE SERVER ===
	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		JWTSecret:          jwtSecret,
		GoogleClientID:     googleClientID,
		GoogleClientSecret: googleClientSecret,
		GoogleCallbackURL:  googleCallbackURL,
		GeminiAPIKey:       geminiAPIKey,
		GeminiModel:        geminiModel,
		AIBudgetCalls:      aiBudgetCalls,
		AIBudgetWindow:     aiBudgetWindow,
		AllowedOrigins:     allowedOrigins,
	}

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

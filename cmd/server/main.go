package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"

	"github.com/hdale/clockless/internal/adapters/sqlite"
	"github.com/hdale/clockless/internal/application/authz"
	"github.com/hdale/clockless/internal/application/content"
	"github.com/hdale/clockless/internal/auth"
	"github.com/hdale/clockless/internal/config"
	"github.com/hdale/clockless/internal/db"
	"github.com/hdale/clockless/internal/metrics"
	"github.com/hdale/clockless/internal/server"
	"github.com/hdale/clockless/internal/server/routes"
	"github.com/hdale/clockless/internal/session"
)

func Run() error {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	store := sqlite.NewStore(database)
	gate := authz.NewService(store)
	if err := gate.Bootstrap(context.Background(), cfg.Auth.BootstrapAdmin); err != nil {
		return fmt.Errorf("failed to bootstrap admin roster: %w", err)
	}

	secret := []byte(cfg.Auth.SessionSecret)
	if !cfg.HasPersistentSessionKey() {
		slog.Warn("CLOCKLESS_SESSION_SECRET not set; sessions will not survive a restart")
		secret = session.NewRandomKey()
	}
	sessions := session.NewStore(secret, cfg.Auth.SecureCookie)

	coordinator := auth.NewCoordinator(routes.NewGoogleProvider(routes.AuthConfig{
		GoogleClientID:     cfg.Auth.GoogleClientID,
		GoogleClientSecret: cfg.Auth.GoogleClientSecret,
		GoogleCallbackURL:  cfg.Auth.GoogleCallbackURL,
	}))

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	contentService := content.NewService(store, gate)

	srv := server.New(log, collector, prometheus.DefaultGatherer)
	srv.RegisterRouter(routes.NewAuthRoutes(sessions, coordinator, collector))
	srv.RegisterRouter(routes.NewAPIRoutes(sessions, coordinator, contentService, collector))
	srv.RegisterRouter(routes.NewAdminRoutes(sessions, coordinator, contentService, gate, collector))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Starting server", "port", cfg.Server.Port)
	return srv.Start(addr)
}

func main() {
	if err := Run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

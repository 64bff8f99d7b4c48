// Command server runs the HBnB API.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hbnb/internal/config"
	"hbnb/internal/middleware"
	"hbnb/internal/models"
	"hbnb/internal/observability"
	"hbnb/internal/seed"
	"hbnb/internal/server"

	"github.com/joho/godotenv"
)

const version = "1.0.0"

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.Logger = middleware.NewLogger(cfg.Env)
	if cfg.BcryptCost > 0 {
		models.PasswordCost = cfg.BcryptCost
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "hbnb-api",
		ServiceVersion: version,
		Environment:    cfg.Env,
		StorageBackend: cfg.StorageBackend,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	ctx := context.Background()
	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// The in-memory store starts empty on every boot.
	if cfg.StorageBackend == config.StorageMemory {
		summary, err := seed.Apply(ctx, srv.Facade(), seed.DefaultFixtures())
		if err != nil {
			log.Fatalf("Failed to seed reference data: %v", err)
		}
		middleware.Logger.Info("reference data loaded",
			slog.Int("users", summary.Users), slog.Int("amenities", summary.Amenities))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		middleware.Logger.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			middleware.Logger.Error("Server stopped", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := errors.Join(srv.Shutdown(shutdownCtx), shutdownTracing(shutdownCtx)); err != nil {
		middleware.Logger.Error("Shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

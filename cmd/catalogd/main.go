// catalogd serves the fence-calculator UI with product catalog data through
// the resilient WooCommerce client. Designed for Cloud Run deployment with
// stateless operation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GE3O/fence-catalog/internal/catalog"
	"github.com/GE3O/fence-catalog/internal/config"
	"github.com/GE3O/fence-catalog/internal/handler"
	"github.com/GE3O/fence-catalog/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := initLogger()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	endpoints, err := cfg.BuildEndpointConfig()
	if err != nil {
		return fmt.Errorf("deriving endpoints: %w", err)
	}
	policy := cfg.BuildPolicy()

	logger.Info("configuration loaded",
		slog.String("store_domain", cfg.Store.Domain),
		slog.String("environment", cfg.Environment),
		slog.Int("templates", len(endpoints.Templates)),
		slog.Duration("timeout", policy.Timeout),
		slog.Bool("synthetic_fallback", policy.SyntheticFallback),
	)

	client, err := catalog.New(catalog.Config{
		Endpoints: endpoints,
		Policy:    policy,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating catalog client: %w", err)
	}

	h := handler.New(client, logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Middleware chain: recovery -> logging -> CORS -> handler.
	// Recovery must be outermost to catch panics from logging middleware.
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.CORS(cfg.Store.AllowedOrigins),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/climate-index-engine/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-index-engine/internal/adapter/kafka"
	"github.com/couchcryptid/climate-index-engine/internal/config"
	"github.com/couchcryptid/climate-index-engine/internal/index"
	"github.com/couchcryptid/climate-index-engine/internal/observability"
	"github.com/couchcryptid/climate-index-engine/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	// Local development convenience; missing .env files are fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	resolver := index.NewResolver(cfg.PercentileCacheSize)
	catalog, err := index.DefaultCatalog(resolver)
	if err != nil {
		logger.Error("failed to build index catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("index catalog ready", "indices", len(catalog.Names()), "percentile_cache_size", cfg.PercentileCacheSize)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	computer := pipeline.NewComputer(catalog, metrics, logger)

	p := pipeline.New(reader, computer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, catalog, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start compute pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

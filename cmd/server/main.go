package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/skyfall-io/impact-sim-service/internal/adapter/http"
	kafkaadapter "github.com/skyfall-io/impact-sim-service/internal/adapter/kafka"
	"github.com/skyfall-io/impact-sim-service/internal/adapter/neo"
	"github.com/skyfall-io/impact-sim-service/internal/config"
	"github.com/skyfall-io/impact-sim-service/internal/observability"
	"github.com/skyfall-io/impact-sim-service/internal/service"
	"github.com/skyfall-io/impact-sim-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scenarios, err := store.OpenSQLite(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open scenario store", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := scenarios.Close(); err != nil {
			logger.Error("scenario store close error", "error", err)
		}
	}()

	feed := neo.NewCachedFeed(neo.NewClient(cfg, metrics, logger), cfg.NEOCacheSize, metrics)

	// Lifecycle events are feature-flagged via KAFKA_BROKERS.
	var events service.EventPublisher
	if cfg.EventsEnabled {
		publisher := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		events = publisher
		logger.Info("scenario events enabled", "topic", cfg.KafkaEventsTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("scenario events disabled")
	}

	svc := service.New(scenarios, feed, events, metrics, logger, cfg.PopDensityPerKm2)
	if err := svc.SeedHistorical(ctx); err != nil {
		logger.Error("failed to seed historical impacts", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

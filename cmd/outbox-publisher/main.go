package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stickerlandia/print-service/internal/outbox"
	"github.com/stickerlandia/print-service/pkg/config"
	"github.com/stickerlandia/print-service/pkg/db"
	"github.com/stickerlandia/print-service/pkg/logger"
	"github.com/stickerlandia/print-service/pkg/metrics"
	"github.com/stickerlandia/print-service/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "outbox-publisher"})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "outbox-publisher",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := psClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	outboxMetrics := metrics.NewOutboxMetrics(registry)
	metricsServer := startMetricsServer(ctx, cfg.Outbox.MetricsPort, registry, logg)
	defer func() {
		if metricsServer != nil {
			_ = metricsServer.Shutdown(context.Background())
		}
	}()

	processor, err := outbox.NewProcessor(outbox.ProcessorParams{
		Store:     outbox.NewStore(dbClient.DB()),
		Publisher: pubsub.NewEventPublisher(psClient, cfg.Outbox.PublishTimeout()),
		Logger:    logg,
		Metrics:   outboxMetrics,
		BatchSize: cfg.Outbox.BatchSize,
	})
	if err != nil {
		logg.Error(ctx, "failed to create outbox processor", err)
		os.Exit(1)
	}

	svc := NewService(processor, logg, cfg.Outbox.PollInterval(), cfg.Outbox.BatchSize, map[string]pinger{
		"database": dbClient,
		"pubsub":   psClient,
	})

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "outbox publisher shut down")
}

func startMetricsServer(ctx context.Context, port int, registry *prometheus.Registry, logg *logger.Logger) *http.Server {
	if port <= 0 {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	return server
}

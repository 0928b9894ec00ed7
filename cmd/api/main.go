package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stickerlandia/print-service/api/routes"
	"github.com/stickerlandia/print-service/internal/outbox"
	"github.com/stickerlandia/print-service/internal/printers"
	"github.com/stickerlandia/print-service/internal/printjobs"
	"github.com/stickerlandia/print-service/pkg/config"
	"github.com/stickerlandia/print-service/pkg/db"
	"github.com/stickerlandia/print-service/pkg/logger"
	"github.com/stickerlandia/print-service/pkg/metrics"
	"github.com/stickerlandia/print-service/pkg/migrate"
	"github.com/stickerlandia/print-service/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	jobMetrics := metrics.NewPrintJobMetrics(registry)

	outboxStore := outbox.NewStore(dbClient.DB())
	printersRepo := printers.NewRepository(dbClient.DB())
	jobsRepo := printjobs.NewRepository(dbClient.DB())

	jobsService, err := printjobs.NewService(printjobs.ServiceParams{
		Repo:         jobsRepo,
		Tx:           dbClient,
		Outbox:       outboxStore,
		Printers:     printersRepo,
		Logger:       logg,
		Metrics:      jobMetrics,
		MaxClaimJobs: cfg.Printer.MaxClaimJobs,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create print jobs service", err)
		os.Exit(1)
	}

	printersService, err := printers.NewService(printers.ServiceParams{
		Repo:            printersRepo,
		Jobs:            jobsService,
		Tx:              dbClient,
		Outbox:          outboxStore,
		Logger:          logg,
		HeartbeatWindow: cfg.Printer.HeartbeatWindow,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create printers service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, printersService, printersRepo, jobsService, metricsHandler),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

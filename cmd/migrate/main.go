package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/stickerlandia/print-service/pkg/config"
	"github.com/stickerlandia/print-service/pkg/db"
	"github.com/stickerlandia/print-service/pkg/logger"
	"github.com/stickerlandia/print-service/pkg/migrate"
)

func main() {
	var (
		cmd     = flag.String("cmd", "up", "goose command: up, down, status, version, up-to, down-to")
		dir     = flag.String("dir", migrate.DefaultDir, "directory containing migration files")
		version = flag.String("version", "", "target version for up-to/down-to")
	)
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
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

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "extracting sql.DB", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{"cmd": *cmd, "dir": *dir})

	switch *cmd {
	case "up-to", "down-to":
		if *version == "" {
			logg.Warn(ctx, "the -version flag is required for up-to/down-to")
			os.Exit(2)
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, *dir, *version)
	default:
		err = migrate.Run(ctx, sqlDB, *dir, *cmd, flag.Args()...)
	}
	if err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}

	logg.Info(ctx, "migration command completed")
}

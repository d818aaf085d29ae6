package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/academe-hq/academe/internal/app"
	jobmetrics "github.com/academe-hq/academe/internal/jobs"
	"github.com/academe-hq/academe/internal/permissions"
	"github.com/academe-hq/academe/internal/platform/db"
	"github.com/academe-hq/academe/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	registry := permissions.NewRegistry(permissions.NewRepository(pool))
	metrics := jobmetrics.NewMetrics(nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskIntegritySweep, Handler: jobs.NewIntegritySweepHandler(pool, logger, metrics)},
			{Type: jobs.TaskRegistryReseed, Handler: jobs.NewRegistryReseedHandler(registry, logger, metrics)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewIntegritySweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * 0", Task: jobs.NewRegistryReseedTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/academe-hq/academe/internal/jobs"
)

// Seeder is implemented by the permission registry.
type Seeder interface {
	Seed(ctx context.Context) error
}

// RunRegistryReseed re-applies the permission catalog.
func RunRegistryReseed(ctx context.Context, seeder Seeder, logger *slog.Logger, metrics *jobmetrics.Metrics) error {
	tracker := metrics.Track("registry_reseed")
	err := seeder.Seed(ctx)
	if err == nil {
		logger.Info("permission registry reseeded")
	}
	return tracker.End(err)
}

// NewRegistryReseedHandler binds the reseed to its dependencies as an Asynq
// handler.
func NewRegistryReseedHandler(seeder Seeder, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return RunRegistryReseed(ctx, seeder, logger, metrics)
	}
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/datavault/internal/app"
	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
	vaultUsecase "github.com/allisson/datavault/internal/vault/usecase"
)

// starter is a long-running service that returns once ctx is done.
type starter interface {
	Start(ctx context.Context) error
}

// RunServer runs the metrics server and, when MIGRATION_WORKER_ENABLED is set,
// the background encryption migration. Blocks until SIGINT/SIGTERM or until
// the metrics server fails.
func RunServer(ctx context.Context, container *app.Container, version string) error {
	cfg := container.Config()
	gin.SetMode(cfg.GetGinMode())

	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	var worker func(ctx context.Context) error
	if cfg.MigrationWorkerEnabled {
		migrationUseCase, err := container.MigrationUseCase()
		if err != nil {
			return fmt.Errorf("failed to initialize migration worker: %w", err)
		}
		worker = MigrationWorker(migrationUseCase, container.MigrationConfig(), logger)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return runServices(ctx, metricsServer, worker)
}

func runServices(ctx context.Context, server starter, worker func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(gctx); err != nil {
			return fmt.Errorf("metrics server error: %w", err)
		}
		return nil
	})

	if worker != nil {
		g.Go(func() error {
			return worker(gctx)
		})
	}

	return g.Wait()
}

// MigrationWorker returns a one-shot background sweep of v1 entries.
// Cancellation is a normal stop, not an error.
func MigrationWorker(
	migrationUseCase vaultUsecase.MigrationUseCase,
	cfg vaultDomain.MigrationConfig,
	logger *slog.Logger,
) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger.Info("migration worker started",
			slog.Int("batch_size", cfg.BatchSize),
			slog.Int("max_batches", cfg.MaxBatches),
		)

		stats, err := migrationUseCase.ScheduleBackgroundMigration(ctx, cfg)
		if errors.Is(err, context.Canceled) {
			logger.Info("migration worker stopped")
			return nil
		}
		if err != nil {
			return fmt.Errorf("migration worker: %w", err)
		}

		logger.Info("migration worker finished",
			slog.Int64("v1", stats.V1),
			slog.Int64("v2", stats.V2),
			slog.Int64("failed", stats.Failed),
			slog.Int("percentage_complete", stats.PercentageComplete),
		)
		return nil
	}
}

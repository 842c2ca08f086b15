package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
	vaultUsecase "github.com/allisson/datavault/internal/vault/usecase"
)

// MigrateEncryptionOptions selects what migrate-encryption does. With EntryID
// set only that entry is migrated; with DryRun only the stats are printed;
// otherwise a full sweep runs with Config.
type MigrateEncryptionOptions struct {
	EntryID string
	OwnerID string
	DryRun  bool
	Config  vaultDomain.MigrationConfig
	Format  string
}

// RunMigrateEncryption upgrades v1 entries to envelope encryption. The sweep
// stops on ctx cancellation between batches; the stats gathered so far are
// still printed.
func RunMigrateEncryption(
	ctx context.Context,
	migrationUseCase vaultUsecase.MigrationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	opts MigrateEncryptionOptions,
) error {
	if err := validateFormat(opts.Format); err != nil {
		return err
	}

	if opts.EntryID != "" {
		return migrateSingleEntry(ctx, migrationUseCase, writer, opts)
	}

	if opts.DryRun {
		return RunEncryptionStats(ctx, migrationUseCase, writer, opts.Format)
	}

	if err := opts.Config.Validate(); err != nil {
		return err
	}

	logger.Info("starting encryption migration",
		slog.Int("batch_size", opts.Config.BatchSize),
		slog.Int("max_batches", opts.Config.MaxBatches),
		slog.Duration("delay_between_batches", opts.Config.DelayBetweenBatches),
	)

	start := time.Now()
	stats, runErr := migrationUseCase.ScheduleBackgroundMigration(ctx, opts.Config)
	interrupted := errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)
	if runErr != nil && !interrupted {
		return fmt.Errorf("encryption migration failed: %w", runErr)
	}

	if stats != nil {
		if opts.Format == FormatJSON {
			if err := writeJSON(writer, toStatsJSON(stats)); err != nil {
				return err
			}
		} else {
			outputStatsText(writer, stats)
		}

		logger.Info("encryption migration finished",
			slog.Int64("v1", stats.V1),
			slog.Int64("v2", stats.V2),
			slog.Int64("failed", stats.Failed),
			slog.Duration("elapsed", time.Since(start)),
		)
	}

	if runErr != nil {
		return fmt.Errorf("encryption migration interrupted: %w", runErr)
	}
	return nil
}

func migrateSingleEntry(
	ctx context.Context,
	migrationUseCase vaultUsecase.MigrationUseCase,
	writer io.Writer,
	opts MigrateEncryptionOptions,
) error {
	id, err := uuid.Parse(opts.EntryID)
	if err != nil {
		return fmt.Errorf("invalid entry id: %w", err)
	}
	if opts.OwnerID == "" {
		return fmt.Errorf("--owner-id is required with --entry-id")
	}

	ok := migrationUseCase.MigrateEntry(ctx, id, opts.OwnerID) && migrationUseCase.VerifyV2Entry(ctx, id)

	if opts.Format == FormatJSON {
		if err := writeJSON(writer, map[string]any{"entry_id": id.String(), "migrated": ok}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Entry %s migrated: %t\n", id, ok)
	}

	if !ok {
		return fmt.Errorf("entry %s was not migrated", id)
	}
	return nil
}

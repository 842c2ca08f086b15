package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/datavault/cmd/app/commands"
	"github.com/allisson/datavault/internal/app"
)

func getVaultCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "encryption-stats",
			Usage: "Show how many entries use each encryption version",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(func(container *app.Container) error {
					migrationUseCase, err := container.MigrationUseCase()
					if err != nil {
						return err
					}
					return commands.RunEncryptionStats(ctx, migrationUseCase, os.Stdout, cmd.String("format"))
				})
			},
		},
		{
			Name:  "migrate-encryption",
			Usage: "Upgrade v1 entries to envelope encryption",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "batch-size",
					Usage: "Entries per batch (defaults to MIGRATION_BATCH_SIZE)",
				},
				&cli.IntFlag{
					Name:  "max-batches",
					Usage: "Upper bound on batches per run (defaults to MIGRATION_MAX_BATCHES)",
				},
				&cli.DurationFlag{
					Name:  "delay",
					Usage: "Pause between batches (defaults to MIGRATION_DELAY_BETWEEN_BATCHES)",
				},
				&cli.StringFlag{
					Name:  "entry-id",
					Usage: "Migrate a single entry by ID",
				},
				&cli.StringFlag{
					Name:  "owner-id",
					Usage: "Owner of --entry-id",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Usage:   "Only report what would be migrated",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(func(container *app.Container) error {
					migrationUseCase, err := container.MigrationUseCase()
					if err != nil {
						return err
					}

					cfg := container.MigrationConfig()
					if cmd.IsSet("batch-size") {
						cfg.BatchSize = cmd.Int("batch-size")
					}
					if cmd.IsSet("max-batches") {
						cfg.MaxBatches = cmd.Int("max-batches")
					}
					if cmd.IsSet("delay") {
						cfg.DelayBetweenBatches = cmd.Duration("delay")
					}

					return commands.RunMigrateEncryption(
						ctx,
						migrationUseCase,
						container.Logger(),
						os.Stdout,
						commands.MigrateEncryptionOptions{
							EntryID: cmd.String("entry-id"),
							OwnerID: cmd.String("owner-id"),
							DryRun:  cmd.Bool("dry-run"),
							Config:  cfg,
							Format:  cmd.String("format"),
						},
					)
				})
			},
		},
	}
}

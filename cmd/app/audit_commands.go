package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/datavault/cmd/app/commands"
	"github.com/allisson/datavault/internal/app"
)

func getAuditCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "verify-audit-chain",
			Usage: "Verify the hash chain of audit events",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "user-id",
					Aliases: []string{"u"},
					Usage:   "Verify a single user's chain (default: every user)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(func(container *app.Container) error {
					auditUseCase, err := container.AuditUseCase()
					if err != nil {
						return err
					}
					return commands.RunVerifyAuditChain(
						ctx,
						auditUseCase,
						container.Logger(),
						os.Stdout,
						cmd.String("user-id"),
						cmd.String("format"),
					)
				})
			},
		},
	}
}

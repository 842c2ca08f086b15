package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/datavault/cmd/app/commands"
	"github.com/allisson/datavault/internal/app"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-kek",
			Usage: "Generate a new Key Encryption Key for ENCRYPTION_KEK",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "kms-key-uri",
					Aliases: []string{"k"},
					Usage:   "Wrap the key with this KMS key (awskms://, gcpkms://, azurekeyvault://, hashivault://, base64key://)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(func(container *app.Container) error {
					return commands.RunCreateKek(
						ctx,
						container.KMSService(),
						os.Stdout,
						cmd.String("kms-key-uri"),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "verify-kek",
			Usage: "Check that the configured KEK decrypts a sample of stored entries",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "sample",
					Aliases: []string{"s"},
					Value:   10,
					Usage:   "Number of entries to decrypt",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(func(container *app.Container) error {
					repo, err := container.VaultEntryRepository()
					if err != nil {
						return err
					}
					keyManager, err := container.KeyManager()
					if err != nil {
						return err
					}
					return commands.RunVerifyKek(
						ctx,
						repo,
						keyManager,
						container.Logger(),
						os.Stdout,
						cmd.Int("sample"),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "hash-password",
			Usage: "Hash a password read from stdin with Argon2id",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "phc",
					Usage: "Print a self-describing PHC string instead of a bare hex digest",
				},
				&cli.StringFlag{
					Name:  "verify",
					Usage: "Verify the password against this PHC hash instead of hashing",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(func(container *app.Container) error {
					return commands.RunHashPassword(
						container.PasswordService(),
						commands.DefaultIO(),
						cmd.Bool("phc"),
						cmd.String("verify"),
					)
				})
			},
		},
	}
}

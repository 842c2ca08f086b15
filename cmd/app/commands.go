package main

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/datavault/cmd/app/commands"
	"github.com/allisson/datavault/internal/app"
	"github.com/allisson/datavault/internal/config"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getKeyCommands()...)
	cmds = append(cmds, getVaultCommands()...)
	cmds = append(cmds, getAuditCommands()...)
	return cmds
}

// withContainer loads and validates the configuration, then hands a container
// to fn and shuts it down afterwards.
func withContainer(fn func(container *app.Container) error) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	container := app.NewContainer(cfg)
	defer commands.CloseContainer(container, container.Logger())

	return fn(container)
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   commands.FormatText,
		Usage:   "Output format: 'text' or 'json'",
	}
}

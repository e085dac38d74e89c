package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/cuenty/fulfillment/cmd/app/commands"
	"github.com/cuenty/fulfillment/internal/app"
	"github.com/cuenty/fulfillment/internal/config"
)

func getAutomationCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "import-credentials",
			Usage: "Import service credentials from a JSON file",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "file",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    `JSON array of {"service_id","plan_id","username","password"} ("-" reads stdin)`,
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				inventory, err := container.InventoryUseCase()
				if err != nil {
					return err
				}

				streams := commands.DefaultIO()
				if path := cmd.String("file"); path != "-" {
					file, err := os.Open(path)
					if err != nil {
						return fmt.Errorf("failed to open credentials file: %w", err)
					}
					defer func() { _ = file.Close() }()
					streams.Reader = file
				}

				return commands.RunImportCredentials(ctx, inventory, container.Logger(), streams, cmd.String("format"))
			},
		},
		{
			Name:  "automation-stats",
			Usage: "Show workflow execution statistics",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				automation, err := container.AutomationUseCase()
				if err != nil {
					return err
				}

				return commands.RunAutomationStats(
					ctx,
					automation,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}

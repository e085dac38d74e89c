package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/cuenty/fulfillment/cmd/app/commands"
	"github.com/cuenty/fulfillment/internal/app"
	"github.com/cuenty/fulfillment/internal/config"
	paymentUseCase "github.com/cuenty/fulfillment/internal/payment/usecase"
)

func getPaymentCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-payment-account",
			Usage: "Register a receiving bank account for SPEI and CoDi payments",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "bank",
					Aliases:  []string{"b"},
					Required: true,
					Usage:    "Bank name shown to the payer",
				},
				&cli.StringFlag{
					Name:     "holder",
					Required: true,
					Usage:    "Account holder name",
				},
				&cli.StringFlag{
					Name:     "clabe",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "18-digit CLABE",
				},
				&cli.StringFlag{
					Name:  "account-number",
					Usage: "Bank account number",
				},
				&cli.IntFlag{
					Name:    "priority",
					Aliases: []string{"p"},
					Value:   0,
					Usage:   "Higher priority accounts are selected first",
				},
				&cli.BoolFlag{
					Name:  "active",
					Value: true,
					Usage: "Whether the account receives new payments",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				payments, err := container.PaymentUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreatePaymentAccount(
					ctx,
					payments,
					container.Logger(),
					commands.DefaultIO().Writer,
					paymentUseCase.CreateAccountInput{
						Bank:          cmd.String("bank"),
						Holder:        cmd.String("holder"),
						CLABE:         cmd.String("clabe"),
						AccountNumber: cmd.String("account-number"),
						Priority:      int(cmd.Int("priority")),
						Active:        cmd.Bool("active"),
					},
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "expire-transactions",
			Usage: "Expire pending transactions past their expiry",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "batch-size",
					Aliases: []string{"n"},
					Value:   500,
					Usage:   "Transactions expired per round",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				payments, err := container.PaymentUseCase()
				if err != nil {
					return err
				}

				return commands.RunExpireTransactions(
					ctx,
					payments,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("batch-size")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "replay-webhooks",
			Usage: "Process stored webhooks that never reached an outcome",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   100,
					Usage:   "Maximum number of events to replay",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				webhooks, err := container.WebhookUseCase()
				if err != nil {
					return err
				}

				return commands.RunReplayWebhooks(
					ctx,
					webhooks,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
	}
}

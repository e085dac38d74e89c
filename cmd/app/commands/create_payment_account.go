package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	paymentDomain "github.com/cuenty/fulfillment/internal/payment/domain"
	paymentUseCase "github.com/cuenty/fulfillment/internal/payment/usecase"
)

// RunCreatePaymentAccount stores a receiving account used for SPEI and CoDi payment
// instructions. The CLABE check digit is validated before anything is written.
//
// Requirements: Database must be migrated and accessible.
func RunCreatePaymentAccount(
	ctx context.Context,
	payments paymentUseCase.PaymentUseCase,
	logger *slog.Logger,
	writer io.Writer,
	input paymentUseCase.CreateAccountInput,
	format string,
) error {
	logger.Info("creating payment account",
		slog.String("bank", input.Bank),
		slog.Int("priority", input.Priority),
	)

	account, err := payments.CreateAccount(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create payment account: %w", err)
	}

	if format == "json" {
		writeJSON(writer, map[string]any{
			"id":             account.ID.String(),
			"bank":           account.Bank,
			"holder":         account.Holder,
			"clabe":          account.CLABE,
			"account_number": account.AccountNumber,
			"priority":       account.Priority,
			"active":         account.Active,
		})
	} else {
		outputAccountText(account, writer)
	}

	logger.Info("payment account created", slog.String("account_id", account.ID.String()))
	return nil
}

func outputAccountText(account *paymentDomain.Account, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "Payment account created successfully!")
	_, _ = fmt.Fprintf(writer, "Account ID: %s\n", account.ID.String())
	_, _ = fmt.Fprintf(writer, "Bank: %s\n", account.Bank)
	_, _ = fmt.Fprintf(writer, "Holder: %s\n", account.Holder)
	_, _ = fmt.Fprintf(writer, "CLABE: %s\n", account.CLABE)
	_, _ = fmt.Fprintf(writer, "Priority: %d (active: %t)\n", account.Priority, account.Active)
}

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	paymentUseCase "github.com/cuenty/fulfillment/internal/payment/usecase"
)

// RunExpireTransactions expires every pending transaction past its expiry, batchSize
// rows at a time.
//
// Requirements: Database must be migrated and accessible.
func RunExpireTransactions(
	ctx context.Context,
	payments paymentUseCase.PaymentUseCase,
	logger *slog.Logger,
	writer io.Writer,
	batchSize int,
	format string,
) error {
	if batchSize <= 0 {
		return fmt.Errorf("batch size must be a positive number, got: %d", batchSize)
	}

	logger.Info("expiring stale transactions", slog.Int("batch_size", batchSize))

	total := 0
	for {
		expired, err := payments.ExpireStale(ctx, batchSize)
		if err != nil {
			return fmt.Errorf("failed to expire transactions: %w", err)
		}
		total += expired
		if expired < batchSize {
			break
		}
	}

	if format == "json" {
		writeJSON(writer, map[string]any{"expired": total})
	} else {
		_, _ = fmt.Fprintf(writer, "Expired %d transaction(s)\n", total)
	}

	logger.Info("expiry completed", slog.Int("expired", total))
	return nil
}

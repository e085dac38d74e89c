package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	webhookUseCase "github.com/cuenty/fulfillment/internal/webhook/usecase"
)

// RunReplayWebhooks processes up to limit stored webhooks that never reached an outcome.
//
// Requirements: Database must be migrated and accessible.
func RunReplayWebhooks(
	ctx context.Context,
	webhooks webhookUseCase.WebhookUseCase,
	logger *slog.Logger,
	writer io.Writer,
	limit int,
	format string,
) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be a positive number, got: %d", limit)
	}

	logger.Info("replaying unprocessed webhooks", slog.Int("limit", limit))

	replayed, err := webhooks.Replay(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to replay webhooks: %w", err)
	}

	if format == "json" {
		writeJSON(writer, map[string]any{"replayed": replayed, "limit": limit})
	} else {
		_, _ = fmt.Fprintf(writer, "Replayed %d webhook event(s)\n", replayed)
	}

	logger.Info("replay completed", slog.Int("replayed", replayed))
	return nil
}

package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cuenty/fulfillment/internal/metrics"
	webhookDomain "github.com/cuenty/fulfillment/internal/webhook/domain"
)

// webhookUseCaseWithMetrics decorates WebhookUseCase with metrics instrumentation.
type webhookUseCaseWithMetrics struct {
	next    WebhookUseCase
	metrics metrics.BusinessMetrics
}

// NewWebhookUseCaseWithMetrics wraps a WebhookUseCase with metrics recording.
// Processed events are counted with their outcome as status.
func NewWebhookUseCaseWithMetrics(useCase WebhookUseCase, m metrics.BusinessMetrics) WebhookUseCase {
	return &webhookUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (w *webhookUseCaseWithMetrics) record(ctx context.Context, operation, status string, start time.Time) {
	w.metrics.RecordOperation(ctx, "webhooks", operation, status)
	w.metrics.RecordDuration(ctx, "webhooks", operation, time.Since(start), status)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Ingest records metrics for accepted callbacks.
func (w *webhookUseCaseWithMetrics) Ingest(
	ctx context.Context,
	input IngestInput,
) (*webhookDomain.WebhookEvent, error) {
	start := time.Now()
	event, err := w.next.Ingest(ctx, input)

	status := statusOf(err)
	if event != nil && event.Outcome == webhookDomain.OutcomeMalformed {
		status = string(webhookDomain.OutcomeMalformed)
	}
	w.record(ctx, "webhook_ingest", status, start)
	return event, err
}

// ProcessEvent records metrics for reconciliation.
func (w *webhookUseCaseWithMetrics) ProcessEvent(
	ctx context.Context,
	id uuid.UUID,
) (*webhookDomain.WebhookEvent, error) {
	start := time.Now()
	event, err := w.next.ProcessEvent(ctx, id)

	status := statusOf(err)
	if err == nil {
		status = string(event.Outcome)
	}
	w.record(ctx, "webhook_process", status, start)
	return event, err
}

// Replay records metrics for replay rounds.
func (w *webhookUseCaseWithMetrics) Replay(ctx context.Context, limit int) (int, error) {
	start := time.Now()
	resolved, err := w.next.Replay(ctx, limit)
	w.record(ctx, "webhook_replay", statusOf(err), start)
	return resolved, err
}

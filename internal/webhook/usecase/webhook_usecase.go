package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cuenty/fulfillment/internal/database"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	paymentDomain "github.com/cuenty/fulfillment/internal/payment/domain"
	"github.com/cuenty/fulfillment/internal/telemetry"
	webhookDomain "github.com/cuenty/fulfillment/internal/webhook/domain"
	webhookService "github.com/cuenty/fulfillment/internal/webhook/service"
)

const defaultFailureReason = "provider_reported_failure"

type webhookUseCase struct {
	config    Config
	txManager database.TxManager
	eventRepo WebhookEventRepository
	payments  PaymentStore
	cache     webhookService.CompletionCache
	logger    *slog.Logger
	now       func() time.Time
}

// NewWebhookUseCase creates the webhook reconciliation use case.
func NewWebhookUseCase(
	config Config,
	txManager database.TxManager,
	eventRepo WebhookEventRepository,
	payments PaymentStore,
	cache webhookService.CompletionCache,
	logger *slog.Logger,
) WebhookUseCase {
	return &webhookUseCase{
		config:    config,
		txManager: txManager,
		eventRepo: eventRepo,
		payments:  payments,
		cache:     cache,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Ingest stores the raw payload before anything acts on it.
func (w *webhookUseCase) Ingest(ctx context.Context, input IngestInput) (*webhookDomain.WebhookEvent, error) {
	now := w.now()
	notification, parseErr := webhookDomain.ParseNotification(input.Payload)

	event := webhookDomain.NewWebhookEvent(input.Payload, notification, input.SourceIP, input.UserAgent, now)
	if parseErr != nil {
		event.Resolve(webhookDomain.OutcomeMalformed, "", now)
	}

	err := w.eventRepo.Create(ctx, event)
	if apperrors.Is(err, webhookDomain.ErrDuplicateWebhookEvent) {
		existing, getErr := w.eventRepo.GetByHash(ctx, event.Reference, event.PayloadHash)
		if getErr != nil {
			return nil, getErr
		}
		w.logger.InfoContext(ctx, "webhook redelivered",
			slog.String("webhook_event_id", existing.ID.String()),
			slog.String("reference", existing.Reference),
		)
		event = existing
	} else if err != nil {
		return nil, err
	}

	if parseErr != nil {
		w.logger.WarnContext(ctx, "malformed webhook",
			slog.String("webhook_event_id", event.ID.String()),
			slog.String("source_ip", input.SourceIP),
		)
		return event, parseErr
	}

	return event, nil
}

// ProcessEvent locks the event row, then the order and transaction rows through the
// payment store, so concurrent deliveries of one reference serialize on the database.
func (w *webhookUseCase) ProcessEvent(ctx context.Context, id uuid.UUID) (*webhookDomain.WebhookEvent, error) {
	ctx = telemetry.WithLogAttrs(ctx, slog.String("webhook_event_id", id.String()))
	ctx, span := telemetry.StartSpan(ctx, "webhook.process", attribute.String("webhook.event_id", id.String()))
	defer span.End()

	var event *webhookDomain.WebhookEvent
	var result resolution
	var applied bool

	err := w.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = w.eventRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if event.Processed {
			return nil
		}

		result, err = w.resolve(ctx, event)
		if err != nil {
			return err
		}

		event.Resolve(result.outcome, result.reason, w.now())
		applied = true
		return w.eventRepo.Update(ctx, event)
	})
	if err != nil {
		w.recordFailure(ctx, id, err)
		span.RecordError(err)
		return nil, err
	}

	if applied {
		w.afterCommit(ctx, event, result)
	}
	span.SetAttributes(attribute.String("webhook.outcome", string(event.Outcome)))

	return event, nil
}

// Replay processes stale unprocessed events one by one. A failing event does not stop
// the batch; its attempt is recorded for the next round.
func (w *webhookUseCase) Replay(ctx context.Context, limit int) (int, error) {
	events, err := w.eventRepo.ListUnprocessed(ctx, webhookDomain.ReplayFilter{
		ReceivedBefore: w.now().Add(-w.config.ReplayMinAge),
		MaxAttempts:    w.config.MaxAttempts,
		Limit:          limit,
	})
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, event := range events {
		if _, err := w.ProcessEvent(ctx, event.ID); err != nil {
			continue
		}
		resolved++
	}

	if len(events) > 0 {
		w.logger.InfoContext(ctx, "webhook events replayed",
			slog.Int("candidates", len(events)),
			slog.Int("resolved", resolved),
		)
	}

	return resolved, nil
}

type resolution struct {
	outcome   webhookDomain.Outcome
	reason    string
	reference string
	orderID   uuid.UUID
}

// resolve decides the outcome of event, applying payment transitions in the caller's
// transaction. Errors roll the whole unit back.
func (w *webhookUseCase) resolve(ctx context.Context, event *webhookDomain.WebhookEvent) (resolution, error) {
	notification, err := webhookDomain.ParseNotification(event.Payload)
	if err != nil {
		return resolution{outcome: webhookDomain.OutcomeMalformed}, nil
	}

	kind := notification.Kind()
	if kind == webhookDomain.KindOther {
		return resolution{outcome: webhookDomain.OutcomeIgnored, reference: notification.Reference}, nil
	}

	reference := notification.Reference
	if reference == "" {
		txn, err := w.payments.LatestPendingByOrder(ctx, *notification.OrderID)
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return resolution{outcome: webhookDomain.OutcomeUnmatched}, nil
		}
		if err != nil {
			return resolution{}, err
		}
		reference = txn.Reference
	}

	if kind == webhookDomain.KindCompletion && w.cachedCompletion(ctx, reference) {
		return resolution{outcome: webhookDomain.OutcomeDuplicate, reference: reference}, nil
	}

	txn, err := w.payments.Lock(ctx, reference)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return resolution{outcome: webhookDomain.OutcomeUnmatched, reference: reference}, nil
	}
	if err != nil {
		return resolution{}, err
	}

	result := resolution{reference: reference, orderID: txn.OrderID}

	switch txn.State {
	case paymentDomain.StatePending:
	case paymentDomain.StateCompleted:
		if kind == webhookDomain.KindCompletion {
			result.outcome = webhookDomain.OutcomeDuplicate
		} else {
			result.outcome, result.reason = webhookDomain.OutcomeRejected, webhookDomain.ReasonNotPending
		}
		return result, nil
	default:
		result.outcome, result.reason = webhookDomain.OutcomeRejected, string(txn.State)
		return result, nil
	}

	// A pending transaction can outlive its order when a workflow cancels the order.
	order, err := w.payments.LockOrder(ctx, txn.OrderID)
	if err != nil {
		return resolution{}, err
	}
	if order.State == orderDomain.StateCancelled {
		if _, err := w.payments.Cancel(ctx, reference, paymentDomain.ReasonOrderCancelled); err != nil {
			return resolution{}, err
		}
		result.outcome, result.reason = webhookDomain.OutcomeRejected, webhookDomain.ReasonOrderCancelled
		return result, nil
	}

	if txn.IsExpired(w.now()) {
		if _, err := w.payments.MarkExpired(ctx, reference); err != nil {
			return resolution{}, err
		}
		result.outcome, result.reason = webhookDomain.OutcomeRejected, webhookDomain.ReasonExpired
		return result, nil
	}

	if kind == webhookDomain.KindFailure {
		reason := notification.Reason
		if reason == "" {
			reason = defaultFailureReason
		}
		if _, err := w.payments.MarkFailed(ctx, reference, reason); err != nil {
			return resolution{}, err
		}
		result.outcome, result.reason = webhookDomain.OutcomeFailed, reason
		return result, nil
	}

	if notification.Amount != nil && !notification.Amount.Equal(txn.Amount) {
		result.outcome, result.reason = webhookDomain.OutcomeRejected, webhookDomain.ReasonAmountMismatch
		return result, nil
	}

	_, alreadyCompleted, err := w.payments.MarkCompleted(ctx, reference, event.Payload)
	if err != nil {
		return resolution{}, err
	}
	if alreadyCompleted {
		result.outcome = webhookDomain.OutcomeDuplicate
		return result, nil
	}

	result.outcome = webhookDomain.OutcomeConfirmed
	return result, nil
}

func (w *webhookUseCase) cachedCompletion(ctx context.Context, reference string) bool {
	completed, err := w.cache.IsCompleted(ctx, reference)
	if err != nil {
		w.logger.WarnContext(ctx, "completion cache unavailable", slog.Any("error", err))
		return false
	}
	return completed
}

func (w *webhookUseCase) afterCommit(ctx context.Context, event *webhookDomain.WebhookEvent, result resolution) {
	attrs := []any{
		slog.String("reference", result.reference),
		slog.String("outcome", string(result.outcome)),
	}
	if result.orderID != uuid.Nil {
		attrs = append(attrs, slog.String("order_id", result.orderID.String()))
	}
	if result.reason != "" {
		attrs = append(attrs, slog.String("reason", result.reason))
	}

	switch result.outcome {
	case webhookDomain.OutcomeConfirmed, webhookDomain.OutcomeDuplicate:
		if err := w.cache.MarkCompleted(ctx, result.reference); err != nil {
			w.logger.WarnContext(ctx, "completion cache unavailable", slog.Any("error", err))
		}
		w.logger.InfoContext(ctx, "webhook processed", attrs...)
	case webhookDomain.OutcomeRejected, webhookDomain.OutcomeUnmatched, webhookDomain.OutcomeMalformed:
		w.logger.WarnContext(ctx, "webhook not applied", attrs...)
	default:
		w.logger.InfoContext(ctx, "webhook processed", attrs...)
	}
}

// recordFailure counts the attempt outside the rolled back transaction.
func (w *webhookUseCase) recordFailure(ctx context.Context, id uuid.UUID, cause error) {
	ctx = database.Detach(ctx)

	w.logger.ErrorContext(ctx, "webhook processing failed", slog.Any("error", cause))

	event, err := w.eventRepo.GetByID(ctx, id)
	if err != nil {
		return
	}
	event.RecordFailure(cause)
	if err := w.eventRepo.Update(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to record webhook attempt", slog.Any("error", err))
	}
}

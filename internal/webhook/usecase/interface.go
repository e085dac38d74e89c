// Package usecase implements webhook ingestion and reconciliation: provider callbacks
// are stored verbatim first and then applied to their payment transaction at most once.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	paymentDomain "github.com/cuenty/fulfillment/internal/payment/domain"
	webhookDomain "github.com/cuenty/fulfillment/internal/webhook/domain"
)

// WebhookEventRepository defines webhook event persistence operations.
type WebhookEventRepository interface {
	Create(ctx context.Context, event *webhookDomain.WebhookEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*webhookDomain.WebhookEvent, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*webhookDomain.WebhookEvent, error)
	GetByHash(ctx context.Context, reference, payloadHash string) (*webhookDomain.WebhookEvent, error)
	Update(ctx context.Context, event *webhookDomain.WebhookEvent) error
	ListUnprocessed(ctx context.Context, filter webhookDomain.ReplayFilter) ([]*webhookDomain.WebhookEvent, error)
}

// PaymentStore is the part of the payment transaction store webhooks drive.
type PaymentStore interface {
	LatestPendingByOrder(ctx context.Context, orderID uuid.UUID) (*paymentDomain.Transaction, error)
	Lock(ctx context.Context, reference string) (*paymentDomain.Transaction, error)
	LockOrder(ctx context.Context, orderID uuid.UUID) (*orderDomain.Order, error)
	Cancel(ctx context.Context, reference, reason string) (*paymentDomain.Transaction, error)
	MarkCompleted(
		ctx context.Context,
		reference string,
		payload []byte,
	) (*paymentDomain.Transaction, bool, error)
	MarkExpired(ctx context.Context, reference string) (*paymentDomain.Transaction, error)
	MarkFailed(ctx context.Context, reference, reason string) (*paymentDomain.Transaction, error)
}

// Config holds webhook processing configuration.
type Config struct {
	// ReplayMinAge keeps replay away from events a worker may still be processing.
	ReplayMinAge time.Duration
	MaxAttempts  int
}

// IngestInput is one provider callback.
type IngestInput struct {
	Payload   []byte
	SourceIP  string
	UserAgent string
}

// WebhookUseCase ingests and reconciles provider webhooks.
type WebhookUseCase interface {
	// Ingest stores the callback and returns its event. A repeated delivery returns the
	// event stored first. A payload without a reference is stored as malformed and
	// ErrMalformedWebhook is returned together with the event.
	Ingest(ctx context.Context, input IngestInput) (*webhookDomain.WebhookEvent, error)
	// ProcessEvent applies a stored event in one atomic unit. Processed events are
	// returned unchanged. On failure the event stays unprocessed and its attempt is recorded.
	ProcessEvent(ctx context.Context, id uuid.UUID) (*webhookDomain.WebhookEvent, error)
	// Replay processes up to limit unprocessed events older than the replay age and
	// returns how many reached a final outcome.
	Replay(ctx context.Context, limit int) (int, error)
}

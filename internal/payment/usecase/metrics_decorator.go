package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cuenty/fulfillment/internal/metrics"
	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	paymentDomain "github.com/cuenty/fulfillment/internal/payment/domain"
)

// paymentUseCaseWithMetrics decorates PaymentUseCase with metrics instrumentation.
type paymentUseCaseWithMetrics struct {
	next    PaymentUseCase
	metrics metrics.BusinessMetrics
}

// NewPaymentUseCaseWithMetrics wraps a PaymentUseCase with metrics recording.
func NewPaymentUseCaseWithMetrics(useCase PaymentUseCase, m metrics.BusinessMetrics) PaymentUseCase {
	return &paymentUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (p *paymentUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "payments", operation, status)
	p.metrics.RecordDuration(ctx, "payments", operation, time.Since(start), status)
}

// CreateTransaction records metrics for checkout.
func (p *paymentUseCaseWithMetrics) CreateTransaction(
	ctx context.Context,
	input CreateTransactionInput,
) (*paymentDomain.Checkout, error) {
	start := time.Now()
	checkout, err := p.next.CreateTransaction(ctx, input)
	p.record(ctx, "transaction_create_"+string(input.Method), start, err)
	return checkout, err
}

// GetByReference records metrics for transaction lookups.
func (p *paymentUseCaseWithMetrics) GetByReference(
	ctx context.Context,
	reference string,
) (*paymentDomain.Transaction, error) {
	start := time.Now()
	txn, err := p.next.GetByReference(ctx, reference)
	p.record(ctx, "transaction_get", start, err)
	return txn, err
}

// LockOrder delegates without recording.
func (p *paymentUseCaseWithMetrics) LockOrder(ctx context.Context, orderID uuid.UUID) (*orderDomain.Order, error) {
	return p.next.LockOrder(ctx, orderID)
}

// LatestPendingByOrder delegates without recording.
func (p *paymentUseCaseWithMetrics) LatestPendingByOrder(
	ctx context.Context,
	orderID uuid.UUID,
) (*paymentDomain.Transaction, error) {
	return p.next.LatestPendingByOrder(ctx, orderID)
}

// Lock delegates without recording; it is always part of a larger operation.
func (p *paymentUseCaseWithMetrics) Lock(ctx context.Context, reference string) (*paymentDomain.Transaction, error) {
	return p.next.Lock(ctx, reference)
}

// MarkCompleted records metrics for confirmations. Idempotent replays count as "duplicate".
func (p *paymentUseCaseWithMetrics) MarkCompleted(
	ctx context.Context,
	reference string,
	payload []byte,
) (*paymentDomain.Transaction, bool, error) {
	start := time.Now()
	txn, alreadyCompleted, err := p.next.MarkCompleted(ctx, reference, payload)
	if alreadyCompleted {
		p.metrics.RecordOperation(ctx, "payments", "transaction_complete", "duplicate")
	} else {
		p.record(ctx, "transaction_complete", start, err)
	}
	return txn, alreadyCompleted, err
}

// MarkExpired records metrics for expirations.
func (p *paymentUseCaseWithMetrics) MarkExpired(
	ctx context.Context,
	reference string,
) (*paymentDomain.Transaction, error) {
	start := time.Now()
	txn, err := p.next.MarkExpired(ctx, reference)
	p.record(ctx, "transaction_expire", start, err)
	return txn, err
}

// MarkFailed records metrics for provider failures.
func (p *paymentUseCaseWithMetrics) MarkFailed(
	ctx context.Context,
	reference, reason string,
) (*paymentDomain.Transaction, error) {
	start := time.Now()
	txn, err := p.next.MarkFailed(ctx, reference, reason)
	p.record(ctx, "transaction_fail", start, err)
	return txn, err
}

// Cancel records metrics for cancellations.
func (p *paymentUseCaseWithMetrics) Cancel(
	ctx context.Context,
	reference, reason string,
) (*paymentDomain.Transaction, error) {
	start := time.Now()
	txn, err := p.next.Cancel(ctx, reference, reason)
	p.record(ctx, "transaction_cancel", start, err)
	return txn, err
}

// CancelOrder records metrics for order cancellations.
func (p *paymentUseCaseWithMetrics) CancelOrder(ctx context.Context, orderID uuid.UUID) (*orderDomain.Order, error) {
	start := time.Now()
	order, err := p.next.CancelOrder(ctx, orderID)
	p.record(ctx, "order_cancel", start, err)
	return order, err
}

// ExpireStale records metrics for expiry sweeps.
func (p *paymentUseCaseWithMetrics) ExpireStale(ctx context.Context, limit int) (int, error) {
	start := time.Now()
	count, err := p.next.ExpireStale(ctx, limit)
	p.record(ctx, "transaction_expire_sweep", start, err)
	return count, err
}

// List records metrics for listings.
func (p *paymentUseCaseWithMetrics) List(
	ctx context.Context,
	filter paymentDomain.ListFilter,
) ([]*paymentDomain.Transaction, error) {
	start := time.Now()
	txns, err := p.next.List(ctx, filter)
	p.record(ctx, "transaction_list", start, err)
	return txns, err
}

// Statistics records metrics for statistics queries.
func (p *paymentUseCaseWithMetrics) Statistics(
	ctx context.Context,
	filter paymentDomain.StatisticsFilter,
) (*paymentDomain.Statistics, error) {
	start := time.Now()
	stats, err := p.next.Statistics(ctx, filter)
	p.record(ctx, "transaction_statistics", start, err)
	return stats, err
}

// CreateAccount records metrics for account creation.
func (p *paymentUseCaseWithMetrics) CreateAccount(
	ctx context.Context,
	input CreateAccountInput,
) (*paymentDomain.Account, error) {
	start := time.Now()
	account, err := p.next.CreateAccount(ctx, input)
	p.record(ctx, "account_create", start, err)
	return account, err
}

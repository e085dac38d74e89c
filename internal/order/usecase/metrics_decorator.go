package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cuenty/fulfillment/internal/metrics"
	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
)

// orderUseCaseWithMetrics decorates OrderUseCase with metrics instrumentation.
type orderUseCaseWithMetrics struct {
	next    OrderUseCase
	metrics metrics.BusinessMetrics
}

// NewOrderUseCaseWithMetrics wraps an OrderUseCase with metrics recording.
func NewOrderUseCaseWithMetrics(useCase OrderUseCase, m metrics.BusinessMetrics) OrderUseCase {
	return &orderUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (o *orderUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	o.metrics.RecordOperation(ctx, "orders", operation, status)
	o.metrics.RecordDuration(ctx, "orders", operation, time.Since(start), status)
}

// Create records metrics for order creation.
func (o *orderUseCaseWithMetrics) Create(ctx context.Context, input CreateOrderInput) (*orderDomain.Order, error) {
	start := time.Now()
	order, err := o.next.Create(ctx, input)
	o.record(ctx, "order_create", start, err)
	return order, err
}

// Get records metrics for order retrieval.
func (o *orderUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	start := time.Now()
	order, err := o.next.Get(ctx, id)
	o.record(ctx, "order_get", start, err)
	return order, err
}

// Lock delegates without recording; it is always part of a larger operation.
func (o *orderUseCaseWithMetrics) Lock(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	return o.next.Lock(ctx, id)
}

// Transition records metrics for order transitions.
func (o *orderUseCaseWithMetrics) Transition(
	ctx context.Context,
	id uuid.UUID,
	event orderDomain.Event,
) (*orderDomain.Order, error) {
	start := time.Now()
	order, err := o.next.Transition(ctx, id, event)
	o.record(ctx, "order_transition_"+string(event), start, err)
	return order, err
}

// AssignCredential records metrics for credential assignment to items.
func (o *orderUseCaseWithMetrics) AssignCredential(ctx context.Context, itemID, credentialID uuid.UUID) error {
	start := time.Now()
	err := o.next.AssignCredential(ctx, itemID, credentialID)
	o.record(ctx, "order_assign_credential", start, err)
	return err
}

package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cuenty/fulfillment/internal/database"
	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	outboxDomain "github.com/cuenty/fulfillment/internal/outbox/domain"
)

type orderUseCase struct {
	txManager  database.TxManager
	orderRepo  OrderRepository
	outboxRepo OutboxWriter
	logger     *slog.Logger
	now        func() time.Time
}

// NewOrderUseCase creates the order state coordinator.
func NewOrderUseCase(
	txManager database.TxManager,
	orderRepo OrderRepository,
	outboxRepo OutboxWriter,
	logger *slog.Logger,
) OrderUseCase {
	return &orderUseCase{
		txManager:  txManager,
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a pending order whose total is the sum of its item prices.
func (o *orderUseCase) Create(ctx context.Context, input CreateOrderInput) (*orderDomain.Order, error) {
	if len(input.Items) == 0 {
		return nil, orderDomain.ErrEmptyOrder
	}

	now := o.now()
	order := &orderDomain.Order{
		ID:            uuid.Must(uuid.NewV7()),
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: input.CustomerPhone,
		RFC:           input.RFC,
		State:         orderDomain.StatePending,
		Total:         decimal.Zero,
		Currency:      input.Currency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, in := range input.Items {
		order.Items = append(order.Items, &orderDomain.Item{
			ID:        uuid.Must(uuid.NewV7()),
			OrderID:   order.ID,
			ServiceID: in.ServiceID,
			PlanID:    in.PlanID,
			UnitPrice: in.UnitPrice,
			CreatedAt: now,
		})
		order.Total = order.Total.Add(in.UnitPrice)
	}

	err := o.txManager.WithTx(ctx, func(ctx context.Context) error {
		return o.orderRepo.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// Get retrieves an order with its items.
func (o *orderUseCase) Get(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	return o.orderRepo.GetByID(ctx, id)
}

// Lock reads the order under a row lock held by the transaction in ctx.
func (o *orderUseCase) Lock(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	return o.orderRepo.GetByIDForUpdate(ctx, id)
}

// Transition validates event against the state read under lock and writes the next
// state in the same transaction. Reaching cancelled or delivered records a domain event.
func (o *orderUseCase) Transition(
	ctx context.Context,
	id uuid.UUID,
	event orderDomain.Event,
) (*orderDomain.Order, error) {
	var order *orderDomain.Order

	err := o.txManager.WithTx(ctx, func(ctx context.Context) error {
		current, err := o.orderRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		from := current.State
		if err := current.Apply(event, o.now()); err != nil {
			return err
		}

		if err := o.orderRepo.UpdateState(ctx, current, from); err != nil {
			return err
		}

		if err := o.recordDomainEvent(ctx, current); err != nil {
			return err
		}

		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "order transitioned",
		slog.String("order_id", order.ID.String()),
		slog.String("event", string(event)),
		slog.String("state", string(order.State)),
	)

	return order, nil
}

// AssignCredential links a claimed credential to an order item.
func (o *orderUseCase) AssignCredential(ctx context.Context, itemID, credentialID uuid.UUID) error {
	return o.orderRepo.AssignCredential(ctx, itemID, credentialID, o.now())
}

func (o *orderUseCase) recordDomainEvent(ctx context.Context, order *orderDomain.Order) error {
	var eventType string
	switch order.State {
	case orderDomain.StateCancelled:
		eventType = outboxDomain.EventOrderCancelled
	case orderDomain.StateDelivered:
		eventType = outboxDomain.EventOrderDelivered
	default:
		return nil
	}

	event, err := outboxDomain.NewOutboxEvent(eventType, order.ID, EventPayload(order))
	if err != nil {
		return err
	}
	return o.outboxRepo.Create(ctx, event)
}

// EventPayload is the workflow payload describing an order. Keys are matched by
// workflow trigger conditions and read by actions.
func EventPayload(order *orderDomain.Order) map[string]any {
	return map[string]any{
		"orderId":       order.ID.String(),
		"orderState":    string(order.State),
		"total":         order.Total.StringFixed(2),
		"currency":      order.Currency,
		"customerEmail": order.CustomerEmail,
		"customerPhone": order.CustomerPhone,
		"rfc":           order.RFC,
		"itemCount":     len(order.Items),
	}
}

// Package usecase implements the order state coordinator. It is the only writer of
// order state: every transition reads the current state under a row lock and writes
// the next state in the same transaction.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	outboxDomain "github.com/cuenty/fulfillment/internal/outbox/domain"
)

// OrderRepository defines order persistence operations.
type OrderRepository interface {
	Create(ctx context.Context, order *orderDomain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error)
	UpdateState(ctx context.Context, order *orderDomain.Order, from orderDomain.State) error
	AssignCredential(ctx context.Context, itemID, credentialID uuid.UUID, assignedAt time.Time) error
}

// OutboxWriter records domain events in the caller's transaction.
type OutboxWriter interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// CreateOrderInput describes an order placed by the checkout flow.
type CreateOrderInput struct {
	CustomerEmail string
	CustomerPhone string
	RFC           string
	Currency      string
	Items         []CreateItemInput
}

// CreateItemInput is one line of a new order.
type CreateItemInput struct {
	ServiceID string
	PlanID    string
	UnitPrice decimal.Decimal
}

// OrderUseCase is the order state coordinator.
type OrderUseCase interface {
	Create(ctx context.Context, input CreateOrderInput) (*orderDomain.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error)
	// Lock reads the order under a row lock. It must run inside a transaction to hold the lock.
	Lock(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error)
	// Transition applies event to the order. It fails with ErrInvalidOrderTransition and
	// leaves the order untouched when the current state has no edge for event.
	Transition(ctx context.Context, id uuid.UUID, event orderDomain.Event) (*orderDomain.Order, error)
	AssignCredential(ctx context.Context, itemID, credentialID uuid.UUID) error
}

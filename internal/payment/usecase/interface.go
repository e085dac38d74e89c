// Package usecase implements the payment transaction store: checkout, confirmation,
// expiry and cancellation of SPEI and CoDi transactions.
//
// Every mutation locks the owning order row before the transaction row, the same
// order the webhook path uses, so concurrent writers serialize without deadlocking.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	outboxDomain "github.com/cuenty/fulfillment/internal/outbox/domain"
	paymentDomain "github.com/cuenty/fulfillment/internal/payment/domain"
)

// TransactionRepository defines payment transaction persistence operations.
type TransactionRepository interface {
	Create(ctx context.Context, txn *paymentDomain.Transaction) error
	GetByReference(ctx context.Context, reference string) (*paymentDomain.Transaction, error)
	GetByReferenceForUpdate(ctx context.Context, reference string) (*paymentDomain.Transaction, error)
	UpdateState(ctx context.Context, txn *paymentDomain.Transaction, from paymentDomain.State) error
	ListPendingByOrder(ctx context.Context, orderID uuid.UUID) ([]*paymentDomain.Transaction, error)
	LatestPendingByOrder(ctx context.Context, orderID uuid.UUID) (*paymentDomain.Transaction, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*paymentDomain.Transaction, error)
	List(ctx context.Context, filter paymentDomain.ListFilter) ([]*paymentDomain.Transaction, error)
	Statistics(ctx context.Context, filter paymentDomain.StatisticsFilter) (*paymentDomain.Statistics, error)
}

// AccountRepository defines receiving account persistence operations.
type AccountRepository interface {
	Create(ctx context.Context, account *paymentDomain.Account) error
	GetActive(ctx context.Context) (*paymentDomain.Account, error)
}

// OrderCoordinator is the part of the order state coordinator payments drive.
type OrderCoordinator interface {
	Lock(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error)
	Transition(ctx context.Context, id uuid.UUID, event orderDomain.Event) (*orderDomain.Order, error)
}

// OutboxWriter records domain events in the caller's transaction.
type OutboxWriter interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// CreateTransactionInput selects a payment method for an order. A zero Amount
// charges the order total.
type CreateTransactionInput struct {
	OrderID uuid.UUID
	Amount  decimal.Decimal
	Method  paymentDomain.Method
}

// CreateAccountInput describes a receiving bank account.
type CreateAccountInput struct {
	Bank          string
	Holder        string
	CLABE         string
	AccountNumber string
	Priority      int
	Active        bool
}

// PaymentUseCase is the payment transaction store.
type PaymentUseCase interface {
	// CreateTransaction issues a fresh reference for the order, moves the order to
	// pending_payment and cancels earlier pending transactions of the order.
	CreateTransaction(ctx context.Context, input CreateTransactionInput) (*paymentDomain.Checkout, error)
	GetByReference(ctx context.Context, reference string) (*paymentDomain.Transaction, error)
	LatestPendingByOrder(ctx context.Context, orderID uuid.UUID) (*paymentDomain.Transaction, error)
	// Lock reads a transaction under a row lock after locking its order. It must run
	// inside a transaction to hold the locks.
	Lock(ctx context.Context, reference string) (*paymentDomain.Transaction, error)
	// LockOrder reads the order of a transaction under a row lock.
	LockOrder(ctx context.Context, orderID uuid.UUID) (*orderDomain.Order, error)
	// MarkCompleted confirms a pending transaction, marks its order paid and records a
	// payment.confirmed event. An already completed transaction is returned unchanged
	// with alreadyCompleted=true.
	MarkCompleted(
		ctx context.Context,
		reference string,
		payload []byte,
	) (txn *paymentDomain.Transaction, alreadyCompleted bool, err error)
	MarkExpired(ctx context.Context, reference string) (*paymentDomain.Transaction, error)
	MarkFailed(ctx context.Context, reference, reason string) (*paymentDomain.Transaction, error)
	// Cancel cancels a pending transaction and its order when the order still awaits payment.
	Cancel(ctx context.Context, reference, reason string) (*paymentDomain.Transaction, error)
	// CancelOrder cancels an order together with its pending transactions.
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*orderDomain.Order, error)
	// ExpireStale expires up to limit pending transactions past their expiry.
	ExpireStale(ctx context.Context, limit int) (int, error)
	List(ctx context.Context, filter paymentDomain.ListFilter) ([]*paymentDomain.Transaction, error)
	Statistics(ctx context.Context, filter paymentDomain.StatisticsFilter) (*paymentDomain.Statistics, error)
	CreateAccount(ctx context.Context, input CreateAccountInput) (*paymentDomain.Account, error)
}

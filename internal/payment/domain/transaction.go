// Package domain defines payment transactions, the bank accounts that receive them,
// and the account details shown to a customer at checkout.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Method is the payment rail of a transaction.
type Method string

const (
	MethodSPEI Method = "spei"
	MethodCoDi Method = "codi"
)

// TTL returns how long a pending transaction of the method accepts payment.
func (m Method) TTL() time.Duration {
	switch m {
	case MethodCoDi:
		return time.Hour
	default:
		return 48 * time.Hour
	}
}

// Prefix returns the reference prefix of the method.
func (m Method) Prefix() string {
	if m == MethodCoDi {
		return "CODI"
	}
	return "SPEI"
}

// IsValid reports whether m is a supported method.
func (m Method) IsValid() bool {
	return m == MethodSPEI || m == MethodCoDi
}

// State is the lifecycle state of a payment transaction.
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
	StateExpired   State = "expired"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	switch s {
	case StatePending, StateCompleted, StateExpired, StateCancelled, StateFailed:
		return true
	}
	return false
}

// Cancellation reasons recorded by the system itself.
const (
	ReasonSuperseded     = "superseded"
	ReasonOrderCancelled = "order_cancelled"
)

// Transaction is a SPEI or CoDi payment expected for an order. Rows are never
// deleted; cancellation is a state.
type Transaction struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	AccountID       uuid.UUID
	Reference       string
	Method          Method
	Amount          decimal.Decimal
	Currency        string
	State           State
	Reason          string
	ProviderPayload []byte
	ExpiresAt       time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsExpired reports whether a pending transaction is past its expiry at now.
func (t *Transaction) IsExpired(now time.Time) bool {
	return t.State == StatePending && !now.Before(t.ExpiresAt)
}

// Complete moves a pending transaction to completed and keeps the provider payload verbatim.
func (t *Transaction) Complete(payload []byte, now time.Time) error {
	if t.State != StatePending {
		return ErrInvalidTransactionTransition
	}
	if t.IsExpired(now) {
		return ErrTransactionExpired
	}
	t.State = StateCompleted
	t.ProviderPayload = payload
	t.CompletedAt = &now
	t.UpdatedAt = now
	return nil
}

// Expire moves a pending transaction to expired.
func (t *Transaction) Expire(now time.Time) error {
	return t.leavePending(StateExpired, "", now)
}

// Cancel moves a pending transaction to cancelled.
func (t *Transaction) Cancel(reason string, now time.Time) error {
	return t.leavePending(StateCancelled, reason, now)
}

// Fail moves a pending transaction to failed.
func (t *Transaction) Fail(reason string, now time.Time) error {
	return t.leavePending(StateFailed, reason, now)
}

func (t *Transaction) leavePending(to State, reason string, now time.Time) error {
	if t.State != StatePending {
		return ErrInvalidTransactionTransition
	}
	t.State = to
	t.Reason = reason
	t.UpdatedAt = now
	return nil
}

// ListFilter narrows transaction listings. Zero values match everything.
type ListFilter struct {
	State  State
	Method Method
	Offset int
	Limit  int
}

// StatisticsFilter narrows statistics to a creation window. Nil bounds are open.
type StatisticsFilter struct {
	Method Method
	From   *time.Time
	To     *time.Time
}

// Statistics summarizes transactions per state.
type Statistics struct {
	Total          int64
	Pending        int64
	Completed      int64
	Expired        int64
	Cancelled      int64
	Failed         int64
	CollectedTotal decimal.Decimal
	AverageTicket  decimal.Decimal
}

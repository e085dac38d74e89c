// Package domain defines the order aggregate and its lifecycle state machine.
//
// Order state moves only along named events:
//
//	pending --payment_method_selected--> pending_payment --payment_confirmed--> paid
//	paid --fulfillment_started--> processing --credentials_delivered--> delivered
//
// cancel moves any state except delivered and cancelled to cancelled.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State is the lifecycle state of an order.
type State string

const (
	StatePending        State = "pending"
	StatePendingPayment State = "pending_payment"
	StatePaid           State = "paid"
	StateProcessing     State = "processing"
	StateDelivered      State = "delivered"
	StateCancelled      State = "cancelled"
)

// Event names a trigger of an order state transition.
type Event string

const (
	EventPaymentMethodSelected Event = "payment_method_selected"
	EventPaymentConfirmed      Event = "payment_confirmed"
	EventFulfillmentStarted    Event = "fulfillment_started"
	EventCredentialsDelivered  Event = "credentials_delivered"
	EventCancel                Event = "cancel"
)

var transitions = map[State]map[Event]State{
	StatePending: {
		EventPaymentMethodSelected: StatePendingPayment,
		EventCancel:                StateCancelled,
	},
	StatePendingPayment: {
		EventPaymentConfirmed: StatePaid,
		EventCancel:           StateCancelled,
	},
	StatePaid: {
		EventFulfillmentStarted: StateProcessing,
		EventCancel:             StateCancelled,
	},
	StateProcessing: {
		EventCredentialsDelivered: StateDelivered,
		EventCancel:               StateCancelled,
	},
}

// Next returns the state reached from `from` on event, or ErrInvalidOrderTransition
// when the graph has no such edge.
func Next(from State, event Event) (State, error) {
	to, ok := transitions[from][event]
	if !ok {
		return from, ErrInvalidOrderTransition
	}
	return to, nil
}

// IsTerminal reports whether no event leaves s.
func (s State) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	switch s {
	case StatePending, StatePendingPayment, StatePaid, StateProcessing, StateDelivered, StateCancelled:
		return true
	}
	return false
}

// IsValid reports whether e is a known event.
func (e Event) IsValid() bool {
	switch e {
	case EventPaymentMethodSelected, EventPaymentConfirmed, EventFulfillmentStarted,
		EventCredentialsDelivered, EventCancel:
		return true
	}
	return false
}

// EventFor returns the event that moves an order into target from its predecessor
// on the forward path. cancelled maps to EventCancel.
func EventFor(target State) (Event, bool) {
	switch target {
	case StatePendingPayment:
		return EventPaymentMethodSelected, true
	case StatePaid:
		return EventPaymentConfirmed, true
	case StateProcessing:
		return EventFulfillmentStarted, true
	case StateDelivered:
		return EventCredentialsDelivered, true
	case StateCancelled:
		return EventCancel, true
	}
	return "", false
}

// Order is a customer purchase of one or more credential items.
type Order struct {
	ID            uuid.UUID
	CustomerEmail string
	CustomerPhone string
	RFC           string
	State         State
	Total         decimal.Decimal
	Currency      string
	PaidAt        *time.Time
	DeliveredAt   *time.Time
	CancelledAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Items         []*Item
}

// Apply moves the order along event, stamping the lifecycle timestamps.
func (o *Order) Apply(event Event, now time.Time) error {
	to, err := Next(o.State, event)
	if err != nil {
		return err
	}

	o.State = to
	o.UpdatedAt = now
	switch to {
	case StatePaid:
		o.PaidAt = &now
	case StateDelivered:
		o.DeliveredAt = &now
	case StateCancelled:
		o.CancelledAt = &now
	}
	return nil
}

// Item is one line of an order. Each item receives exactly one credential.
type Item struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ServiceID    string
	PlanID       string
	UnitPrice    decimal.Decimal
	CredentialID *uuid.UUID
	AssignedAt   *time.Time
	CreatedAt    time.Time
}

// NeedsCredential reports whether the item is still waiting for a credential.
func (i *Item) NeedsCredential() bool {
	return i.CredentialID == nil
}

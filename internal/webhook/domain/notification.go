package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types read from provider payloads.
const (
	EventNotification     = "payment.notification"
	EventPaymentConfirmed = "payment.confirmed"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
)

// Kind classifies what an event type asks of its transaction.
type Kind int

const (
	KindOther Kind = iota
	KindCompletion
	KindFailure
)

// Notification is the interpreted part of a provider payload.
type Notification struct {
	Reference string
	// OrderID is set when the payload identifies the order instead of the reference.
	OrderID   *uuid.UUID
	EventType string
	Amount    *decimal.Decimal
	Reason    string
}

// Kind reports whether the notification completes, fails or only informs.
func (n Notification) Kind() Kind {
	switch n.EventType {
	case EventNotification, EventPaymentConfirmed, EventPaymentCompleted:
		return KindCompletion
	case EventPaymentFailed:
		return KindFailure
	}
	return KindOther
}

// HasTarget reports whether the payload identifies a transaction.
func (n Notification) HasTarget() bool {
	return n.Reference != "" || n.OrderID != nil
}

// ParseNotification reads the reference, event type and amount from a provider payload.
// Providers name fields in English or Spanish; the first present key wins. A payload that
// is not a JSON object, or that names neither a reference nor an order, is malformed.
func ParseNotification(payload []byte) (Notification, error) {
	fields, err := decodeObject(payload)
	if err != nil {
		return Notification{EventType: EventNotification}, ErrMalformedWebhook
	}

	n := Notification{
		Reference: firstString(fields, "reference", "referencia"),
		EventType: firstString(fields, "event", "evento"),
		Reason:    firstString(fields, "reason", "motivo"),
	}
	if n.EventType == "" {
		n.EventType = EventNotification
	}

	if n.Reference == "" {
		if raw := firstString(fields, "order_id", "orderId"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				n.OrderID = &id
			}
		}
	}

	if amount, ok := firstAmount(fields, "amount", "monto"); ok {
		n.Amount = &amount
	}

	if !n.HasTarget() {
		return n, ErrMalformedWebhook
	}
	return n, nil
}

// decodeObject keeps numbers as json.Number so long numeric references survive intact.
func decodeObject(payload []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, ErrMalformedWebhook
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrMalformedWebhook
	}
	return fields, nil
}

func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := fields[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func firstAmount(fields map[string]any, keys ...string) (decimal.Decimal, bool) {
	for _, key := range keys {
		var raw string
		switch v := fields[key].(type) {
		case json.Number:
			raw = v.String()
		case string:
			raw = strings.TrimSpace(v)
		default:
			continue
		}
		if d, err := decimal.NewFromString(raw); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

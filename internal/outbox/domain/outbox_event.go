// Package domain defines the outbox event relayed after a business transaction commits.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// Domain event names relayed through the outbox.
const (
	EventPaymentConfirmed = "payment.confirmed"
	EventOrderCancelled   = "order.cancelled"
	EventOrderDelivered   = "order.delivered"
)

// OutboxEvent is a domain event written in the same transaction as the state change
// it announces. AggregateID is the order the event belongs to and keys the Kafka message.
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	AggregateID uuid.UUID
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOutboxEvent builds a pending event with a JSON encoded payload.
func NewOutboxEvent(eventType string, aggregateID uuid.UUID, payload any) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		ID:          uuid.Must(uuid.NewV7()),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     string(data),
		Status:      OutboxEventStatusPending,
	}, nil
}

// DecodePayload unmarshals the JSON payload into a generic map.
func (e *OutboxEvent) DecodePayload() (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(e.Payload), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

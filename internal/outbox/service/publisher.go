// Package service provides outbox event publishers.
package service

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	apperrors "github.com/cuenty/fulfillment/internal/errors"
	outboxDomain "github.com/cuenty/fulfillment/internal/outbox/domain"
)

// Publisher forwards a committed outbox event to external consumers.
type Publisher interface {
	Publish(ctx context.Context, event *outboxDomain.OutboxEvent) error
	Close() error
}

// MessageWriter is the part of kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaWriter creates a writer that hashes message keys to partitions, so all the
// events of one order stay in order.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
}

// NewKafkaPublisher publishes events keyed by their aggregate id.
func NewKafkaPublisher(writer MessageWriter) Publisher {
	return &kafkaPublisher{writer: writer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AggregateID.String()),
		Value: []byte(event.Payload),
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID.String())},
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to publish outbox event")
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type noOpPublisher struct{}

// NewNoOpPublisher creates a Publisher that drops every event. It is used when no
// broker is configured.
func NewNoOpPublisher() Publisher {
	return noOpPublisher{}
}

func (noOpPublisher) Publish(context.Context, *outboxDomain.OutboxEvent) error { return nil }

func (noOpPublisher) Close() error { return nil }

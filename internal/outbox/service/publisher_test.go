package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	outboxDomain "github.com/cuenty/fulfillment/internal/outbox/domain"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func sampleEvent(t *testing.T) *outboxDomain.OutboxEvent {
	t.Helper()
	event, err := outboxDomain.NewOutboxEvent(outboxDomain.EventPaymentConfirmed, uuid.Must(uuid.NewV7()),
		map[string]any{"orderId": "o-1", "total": "199.00"})
	require.NoError(t, err)
	event.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return event
}

func TestKafkaPublisher_Publish(t *testing.T) {
	t.Run("Success_KeyedByAggregate", func(t *testing.T) {
		writer := &recordingWriter{}
		event := sampleEvent(t)

		err := NewKafkaPublisher(writer).Publish(context.Background(), event)

		require.NoError(t, err)
		require.Len(t, writer.messages, 1)
		msg := writer.messages[0]
		assert.Equal(t, event.AggregateID.String(), string(msg.Key))
		assert.JSONEq(t, `{"orderId":"o-1","total":"199.00"}`, string(msg.Value))
		assert.Equal(t, event.CreatedAt, msg.Time)
		assert.Contains(t, msg.Headers, kafka.Header{Key: "event_type", Value: []byte("payment.confirmed")})
	})

	t.Run("Error_WriterFails", func(t *testing.T) {
		writer := &recordingWriter{err: errors.New("leader not available")}

		err := NewKafkaPublisher(writer).Publish(context.Background(), sampleEvent(t))

		assert.ErrorContains(t, err, "failed to publish outbox event")
	})

	t.Run("Success_Close", func(t *testing.T) {
		writer := &recordingWriter{}

		require.NoError(t, NewKafkaPublisher(writer).Close())
		assert.True(t, writer.closed)
	})
}

func TestNewKafkaWriter(t *testing.T) {
	writer := NewKafkaWriter([]string{"localhost:9092"}, "payments.events")

	assert.Equal(t, "payments.events", writer.Topic)
	assert.Equal(t, kafka.RequireAll, writer.RequiredAcks)
	assert.IsType(t, &kafka.Hash{}, writer.Balancer)
}

func TestNoOpPublisher(t *testing.T) {
	publisher := NewNoOpPublisher()

	assert.NoError(t, publisher.Publish(context.Background(), sampleEvent(t)))
	assert.NoError(t, publisher.Close())
}

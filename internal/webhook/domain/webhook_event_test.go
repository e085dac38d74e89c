package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/cuenty/fulfillment/internal/errors"
)

func TestParseNotification(t *testing.T) {
	t.Run("Success_EnglishFields", func(t *testing.T) {
		n, err := ParseNotification([]byte(`{"reference":"SPEI1ABC","event":"payment.confirmed","amount":"199.00"}`))
		require.NoError(t, err)

		assert.Equal(t, "SPEI1ABC", n.Reference)
		assert.Equal(t, EventPaymentConfirmed, n.EventType)
		require.NotNil(t, n.Amount)
		assert.True(t, n.Amount.Equal(decimal.RequireFromString("199")))
		assert.Equal(t, KindCompletion, n.Kind())
	})

	t.Run("Success_SpanishFields", func(t *testing.T) {
		n, err := ParseNotification([]byte(`{"referencia":"CODI9Z","evento":"payment.failed","monto":50.5,"motivo":"fondos"}`))
		require.NoError(t, err)

		assert.Equal(t, "CODI9Z", n.Reference)
		assert.Equal(t, KindFailure, n.Kind())
		assert.Equal(t, "fondos", n.Reason)
		assert.True(t, n.Amount.Equal(decimal.RequireFromString("50.5")))
	})

	t.Run("Success_DefaultEventType", func(t *testing.T) {
		n, err := ParseNotification([]byte(`{"reference":"SPEI1"}`))
		require.NoError(t, err)

		assert.Equal(t, EventNotification, n.EventType)
		assert.Equal(t, KindCompletion, n.Kind())
		assert.Nil(t, n.Amount)
	})

	t.Run("Success_OrderID", func(t *testing.T) {
		id := uuid.Must(uuid.NewV7())
		n, err := ParseNotification([]byte(`{"order_id":"` + id.String() + `","event":"spei.status"}`))
		require.NoError(t, err)

		require.NotNil(t, n.OrderID)
		assert.Equal(t, id, *n.OrderID)
		assert.Empty(t, n.Reference)
		assert.Equal(t, KindOther, n.Kind())
	})

	t.Run("Success_LongNumericReferenceKeepsEveryDigit", func(t *testing.T) {
		n, err := ParseNotification([]byte(`{"referencia":646180157000000004123,"monto":199.10}`))
		require.NoError(t, err)

		assert.Equal(t, "646180157000000004123", n.Reference)
		assert.Equal(t, "199.1", n.Amount.String())
	})

	t.Run("Error_TrailingData", func(t *testing.T) {
		_, err := ParseNotification([]byte(`{"reference":"SPEI1"} {"reference":"SPEI2"}`))
		assert.ErrorIs(t, err, ErrMalformedWebhook)
	})

	t.Run("Error_MissingReference", func(t *testing.T) {
		_, err := ParseNotification([]byte(`{"amount":"10.00"}`))
		assert.ErrorIs(t, err, ErrMalformedWebhook)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("Error_InvalidOrderID", func(t *testing.T) {
		_, err := ParseNotification([]byte(`{"order_id":"42"}`))
		assert.ErrorIs(t, err, ErrMalformedWebhook)
	})

	t.Run("Error_NotAnObject", func(t *testing.T) {
		for _, payload := range []string{`not json`, `null`, `["SPEI1"]`} {
			_, err := ParseNotification([]byte(payload))
			assert.ErrorIs(t, err, ErrMalformedWebhook, payload)
		}
	})
}

func TestHashPayload(t *testing.T) {
	a := HashPayload([]byte(`{"reference":"SPEI1"}`))
	b := HashPayload([]byte(`{"reference":"SPEI1"}`))
	c := HashPayload([]byte(`{"reference":"SPEI2"}`))

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestWebhookEvent_Lifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"reference":"SPEI1"}`)

	event := NewWebhookEvent(payload, Notification{Reference: "SPEI1", EventType: EventNotification},
		"10.0.0.1", "bank/1.0", now)
	assert.False(t, event.Processed)
	assert.Equal(t, HashPayload(payload), event.PayloadHash)

	event.RecordFailure(errors.New("deadlock detected"))
	event.RecordFailure(errors.New("deadlock detected"))
	assert.Equal(t, 2, event.Attempts)
	require.NotNil(t, event.LastError)

	event.Resolve(OutcomeConfirmed, "", now)
	assert.True(t, event.Processed)
	assert.Equal(t, &now, event.ProcessedAt)
	assert.Equal(t, OutcomeConfirmed, event.Outcome)
	assert.Nil(t, event.LastError)
}

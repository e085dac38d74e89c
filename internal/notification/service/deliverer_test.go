package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notificationDomain "github.com/cuenty/fulfillment/internal/notification/domain"
)

func TestLoggingDeliverer_Deliver(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		var buf bytes.Buffer
		deliverer := NewLoggingDeliverer(slog.New(slog.NewJSONHandler(&buf, nil)))

		result, err := deliverer.Deliver(ctx, notificationDomain.Message{
			Channel:   notificationDomain.ChannelWhatsApp,
			Recipient: "+525512345678",
			Template:  "credentials_delivered",
			Vars:      map[string]any{"password": "hunter2"},
		})
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.NotEmpty(t, result.ProviderMessageID)
		assert.Contains(t, buf.String(), "credentials_delivered")
		assert.NotContains(t, buf.String(), "hunter2")
	})

	t.Run("Error_InvalidChannel", func(t *testing.T) {
		deliverer := NewLoggingDeliverer(slog.New(slog.DiscardHandler))

		_, err := deliverer.Deliver(ctx, notificationDomain.Message{Channel: "pigeon", Recipient: "x"})
		assert.ErrorIs(t, err, notificationDomain.ErrInvalidChannel)
	})

	t.Run("Error_MissingRecipient", func(t *testing.T) {
		deliverer := NewLoggingDeliverer(slog.New(slog.DiscardHandler))

		_, err := deliverer.Deliver(ctx, notificationDomain.Message{Channel: notificationDomain.ChannelSMS})
		assert.ErrorIs(t, err, notificationDomain.ErrMissingRecipient)
	})
}

// Package service provides notification deliverers.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	notificationDomain "github.com/cuenty/fulfillment/internal/notification/domain"
)

// Deliverer sends a message through its channel.
type Deliverer interface {
	Deliver(ctx context.Context, message notificationDomain.Message) (notificationDomain.DeliveryResult, error)
}

type loggingDeliverer struct {
	logger *slog.Logger
}

// NewLoggingDeliverer creates a Deliverer that records messages in the log instead of
// sending them. Template variables are not logged since they may carry credentials.
func NewLoggingDeliverer(logger *slog.Logger) Deliverer {
	return &loggingDeliverer{logger: logger}
}

// Deliver validates and logs the message.
func (d *loggingDeliverer) Deliver(
	ctx context.Context,
	message notificationDomain.Message,
) (notificationDomain.DeliveryResult, error) {
	if !message.Channel.IsValid() {
		return notificationDomain.DeliveryResult{}, notificationDomain.ErrInvalidChannel
	}
	if message.Recipient == "" {
		return notificationDomain.DeliveryResult{}, notificationDomain.ErrMissingRecipient
	}

	id := uuid.Must(uuid.NewV7()).String()

	d.logger.InfoContext(ctx, "notification delivered",
		slog.String("channel", string(message.Channel)),
		slog.String("template", message.Template),
		slog.String("provider_message_id", id),
	)

	return notificationDomain.DeliveryResult{Success: true, ProviderMessageID: id}, nil
}

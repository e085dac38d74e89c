// Package domain defines the notification delivery contract.
package domain

import (
	"github.com/cuenty/fulfillment/internal/errors"
)

// Channel is a delivery channel.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

// IsValid reports whether c is a supported channel.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelSMS, ChannelWhatsApp, ChannelEmail:
		return true
	}
	return false
}

// Message is one notification to deliver.
type Message struct {
	Channel   Channel
	Recipient string
	Template  string
	Vars      map[string]any
}

// DeliveryResult is the provider acknowledgement of a delivered message.
type DeliveryResult struct {
	Success           bool
	ProviderMessageID string
}

// Notification error definitions.
var (
	// ErrInvalidChannel indicates an unsupported channel.
	ErrInvalidChannel = errors.Wrap(errors.ErrInvalidInput, "invalid notification channel")

	// ErrMissingRecipient indicates the message has no recipient.
	ErrMissingRecipient = errors.Wrap(errors.ErrInvalidInput, "notification recipient is required")
)

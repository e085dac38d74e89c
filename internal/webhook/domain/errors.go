package domain

import (
	"github.com/cuenty/fulfillment/internal/errors"
)

// Webhook error definitions.
var (
	// ErrMalformedWebhook indicates a payload that identifies no transaction.
	ErrMalformedWebhook = errors.Wrap(errors.ErrInvalidInput, "malformed webhook")

	// ErrWebhookEventNotFound indicates the event does not exist.
	ErrWebhookEventNotFound = errors.Wrap(errors.ErrNotFound, "webhook event not found")

	// ErrDuplicateWebhookEvent indicates an event with the same reference and payload
	// hash is already stored.
	ErrDuplicateWebhookEvent = errors.Wrap(errors.ErrConflict, "webhook event already recorded")
)

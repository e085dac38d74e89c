package domain

import (
	"github.com/cuenty/fulfillment/internal/errors"
)

// Automation error definitions.
var (
	// ErrWorkflowNotFound indicates the workflow does not exist.
	ErrWorkflowNotFound = errors.Wrap(errors.ErrNotFound, "workflow not found")

	// ErrInvalidWorkflow indicates a workflow definition that fails validation.
	ErrInvalidWorkflow = errors.Wrap(errors.ErrInvalidInput, "invalid workflow")

	// ErrMissingOrderID indicates a trigger payload without an order id for an
	// action that acts on an order.
	ErrMissingOrderID = errors.Wrap(errors.ErrInvalidInput, "trigger payload has no valid orderId")

	// ErrCredentialsExhausted indicates some items could not get a credential.
	ErrCredentialsExhausted = errors.Wrap(errors.ErrUnavailable, "credentials exhausted")

	// ErrDeliveryFailed indicates the notification provider rejected the message.
	ErrDeliveryFailed = errors.Wrap(errors.ErrUnavailable, "notification delivery failed")

	// ErrNoExecutor indicates an action type without a registered executor.
	ErrNoExecutor = errors.New("no executor for action type")
)

package domain

import (
	"github.com/cuenty/fulfillment/internal/errors"
)

// Order error definitions.
var (
	// ErrOrderNotFound indicates the order does not exist.
	ErrOrderNotFound = errors.Wrap(errors.ErrNotFound, "order not found")

	// ErrInvalidOrderTransition indicates the order state graph has no such edge.
	ErrInvalidOrderTransition = errors.Wrap(errors.ErrInvalidTransition, "invalid order transition")

	// ErrOrderStateChanged indicates a concurrent writer moved the order first.
	ErrOrderStateChanged = errors.Wrap(errors.ErrConflict, "order state changed concurrently")

	// ErrEmptyOrder indicates an order without items.
	ErrEmptyOrder = errors.Wrap(errors.ErrInvalidInput, "order must contain at least one item")

	// ErrOrderItemNotFound indicates the order item does not exist.
	ErrOrderItemNotFound = errors.Wrap(errors.ErrNotFound, "order item not found")
)

// ErrItemAlreadyAssigned indicates the order item already holds a credential.
var ErrItemAlreadyAssigned = errors.Wrap(errors.ErrConflict, "order item already has a credential")

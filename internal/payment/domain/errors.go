package domain

import (
	"github.com/cuenty/fulfillment/internal/errors"
)

// Payment error definitions.
var (
	// ErrTransactionNotFound indicates no transaction has the reference.
	ErrTransactionNotFound = errors.Wrap(errors.ErrNotFound, "payment transaction not found")

	// ErrInvalidTransactionTransition indicates the transaction is no longer pending.
	ErrInvalidTransactionTransition = errors.Wrap(errors.ErrInvalidTransition, "invalid payment transaction transition")

	// ErrTransactionExpired indicates a pending transaction reached its expiry.
	ErrTransactionExpired = errors.Wrap(errors.ErrInvalidTransition, "payment transaction expired")

	// ErrTransactionStateChanged indicates a concurrent writer moved the transaction first.
	ErrTransactionStateChanged = errors.Wrap(errors.ErrConflict, "payment transaction state changed concurrently")

	// ErrReferenceConflict indicates the generated reference is already taken.
	ErrReferenceConflict = errors.Wrap(errors.ErrConflict, "payment reference already exists")

	// ErrNoActiveAccount indicates there is no active receiving account.
	ErrNoActiveAccount = errors.Wrap(errors.ErrUnavailable, "no active payment account configured")

	// ErrInvalidMethod indicates an unsupported payment method.
	ErrInvalidMethod = errors.Wrap(errors.ErrInvalidInput, "invalid payment method")

	// ErrAmountMismatch indicates an amount different from the order total.
	ErrAmountMismatch = errors.Wrap(errors.ErrInvalidInput, "amount does not match order total")

	// ErrAccountConflict indicates an account with the CLABE already exists.
	ErrAccountConflict = errors.Wrap(errors.ErrConflict, "payment account already exists")
)

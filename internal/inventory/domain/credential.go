// Package domain defines credentials: third-party accounts sold as inventory units,
// each assigned to at most one paid order item.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/cuenty/fulfillment/internal/errors"
)

// State is the availability of a credential.
type State string

const (
	StateAvailable State = "available"
	StateAssigned  State = "assigned"
	StateDisabled  State = "disabled"
)

// Credential is one inventory unit. The password is sealed at rest.
type Credential struct {
	ID             uuid.UUID
	ServiceID      string
	PlanID         string
	Username       string
	SealedPassword []byte
	State          State
	OrderItemID    *uuid.UUID
	AssignedAt     *time.Time
	CreatedAt      time.Time
}

// Inventory error definitions.
var (
	// ErrNoneAvailable indicates the pool for a service plan is exhausted.
	ErrNoneAvailable = errors.Wrap(errors.ErrUnavailable, "no credential available")

	// ErrCredentialNotFound indicates the credential does not exist.
	ErrCredentialNotFound = errors.Wrap(errors.ErrNotFound, "credential not found")
)

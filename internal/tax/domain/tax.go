// Package domain defines Mexican tax identifiers and IVA ledger entries.
package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cuenty/fulfillment/internal/errors"
)

// rfcPattern matches both persona moral (3 letters) and persona física (4 letters) RFCs.
var rfcPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3}$`)

// DefaultIVARate is the general IVA rate.
var DefaultIVARate = decimal.RequireFromString("0.16")

// Tax error definitions.
var (
	// ErrInvalidRFC indicates a malformed RFC.
	ErrInvalidRFC = errors.Wrap(errors.ErrInvalidInput, "invalid rfc")

	// ErrInvalidRate indicates a tax rate outside (0, 1).
	ErrInvalidRate = errors.Wrap(errors.ErrInvalidInput, "tax rate must be between 0 and 1")
)

// NormalizeRFC upper-cases and trims an RFC.
func NormalizeRFC(rfc string) string {
	return strings.ToUpper(strings.TrimSpace(rfc))
}

// ValidRFC reports whether rfc, once normalized, has a valid RFC shape.
func ValidRFC(rfc string) bool {
	return rfcPattern.MatchString(NormalizeRFC(rfc))
}

// PersonType returns "moral" for 12-character RFCs and "fisica" for 13-character ones.
func PersonType(rfc string) string {
	if len([]rune(NormalizeRFC(rfc))) == 12 {
		return "moral"
	}
	return "fisica"
}

// ParseRate parses a rate such as "0.16" and checks it lies in (0, 1).
func ParseRate(s string) (decimal.Decimal, error) {
	if s == "" {
		return DefaultIVARate, nil
	}
	rate, err := decimal.NewFromString(s)
	if err != nil || !rate.IsPositive() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, ErrInvalidRate
	}
	return rate, nil
}

// Breakdown splits a tax-inclusive total into base and tax at rate, rounding to cents.
// Base plus tax always equals total.
func Breakdown(total, rate decimal.Decimal) (base, tax decimal.Decimal) {
	base = total.Div(decimal.NewFromInt(1).Add(rate)).Round(2)
	tax = total.Sub(base)
	return base, tax
}

// Profile records a validated RFC for an order.
type Profile struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	RFC        string
	PersonType string
	Valid      bool
	CreatedAt  time.Time
}

// Entry is the IVA ledger row of an order. Each order has at most one.
type Entry struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Base      decimal.Decimal
	Rate      decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	Currency  string
	CreatedAt time.Time
}

// ErrTaxEntryNotFound indicates the order has no IVA ledger entry.
var ErrTaxEntryNotFound = errors.Wrap(errors.ErrNotFound, "tax entry not found")

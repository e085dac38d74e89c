// Package dto provides data transfer objects for payment HTTP requests and responses.
package dto

import (
	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	paymentDomain "github.com/cuenty/fulfillment/internal/payment/domain"
	customValidation "github.com/cuenty/fulfillment/internal/validation"
)

// CheckoutRequest selects the payment method of an order. Amount is optional and,
// when present, must equal the order total.
type CheckoutRequest struct {
	Method string `json:"method"`
	Amount string `json:"amount,omitempty"`
}

// Validate checks if the checkout request is valid.
func (r *CheckoutRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Method,
			validation.Required,
			validation.In(string(paymentDomain.MethodSPEI), string(paymentDomain.MethodCoDi)),
		),
		validation.Field(&r.Amount, customValidation.PositiveAmount),
	)
}

// ParsedAmount returns the requested amount, zero when omitted.
func (r *CheckoutRequest) ParsedAmount() decimal.Decimal {
	if r.Amount == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(r.Amount)
}

// CancelTransactionRequest cancels a pending transaction.
type CancelTransactionRequest struct {
	Reason string `json:"reason"`
}

// Validate checks if the cancel request is valid.
func (r *CancelTransactionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
	)
}

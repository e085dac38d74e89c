// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	apperrors "github.com/cuenty/fulfillment/internal/errors"
	"github.com/cuenty/fulfillment/internal/reference"
	taxDomain "github.com/cuenty/fulfillment/internal/tax/domain"
)

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// phoneRegex accepts E.164 numbers
	phoneRegex = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

	// currencyRegex accepts ISO 4217 alphabetic codes
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// Phone validates an E.164 phone number
var Phone = validation.NewStringRuleWithError(
	func(s string) bool {
		return phoneRegex.MatchString(s)
	},
	validation.NewError("validation_phone_format", "must be an E.164 phone number"),
)

// Currency validates an upper-case ISO 4217 code
var Currency = validation.NewStringRuleWithError(
	func(s string) bool {
		return currencyRegex.MatchString(s)
	},
	validation.NewError("validation_currency_format", "must be a 3-letter ISO currency code"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// RFC validates a Mexican tax id
var RFC = validation.NewStringRuleWithError(
	taxDomain.ValidRFC,
	validation.NewError("validation_rfc_format", "must be a valid RFC"),
)

// CLABE validates an 18-digit CLABE including its check digit
var CLABE = validation.NewStringRuleWithError(
	func(s string) bool {
		return reference.ValidateCLABE(s) == nil
	},
	validation.NewError("validation_clabe", "must be a valid 18-digit CLABE"),
)

// PositiveAmount validates a decimal string greater than zero with at most two decimals
var PositiveAmount = validation.NewStringRuleWithError(
	func(s string) bool {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return false
		}
		return d.IsPositive() && d.Exponent() >= -2
	},
	validation.NewError("validation_amount", "must be a positive amount with at most two decimals"),
)

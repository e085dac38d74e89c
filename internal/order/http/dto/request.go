// Package dto provides data transfer objects for order HTTP requests and responses.
package dto

import (
	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	orderUseCase "github.com/cuenty/fulfillment/internal/order/usecase"
	customValidation "github.com/cuenty/fulfillment/internal/validation"
)

// CreateItemRequest is one line of a new order.
type CreateItemRequest struct {
	ServiceID string `json:"service_id"`
	PlanID    string `json:"plan_id"`
	UnitPrice string `json:"unit_price"`
}

// Validate checks if the item is valid.
func (r CreateItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ServiceID, validation.Required, customValidation.NotBlank, validation.Length(1, 100)),
		validation.Field(&r.PlanID, validation.Required, customValidation.NotBlank, validation.Length(1, 100)),
		validation.Field(&r.UnitPrice, validation.Required, customValidation.PositiveAmount),
	)
}

// CreateOrderRequest places an order. Currency defaults to MXN.
type CreateOrderRequest struct {
	CustomerEmail string              `json:"customer_email"`
	CustomerPhone string              `json:"customer_phone,omitempty"`
	RFC           string              `json:"rfc,omitempty"`
	Currency      string              `json:"currency,omitempty"`
	Items         []CreateItemRequest `json:"items"`
}

// Validate checks if the create order request is valid.
func (r *CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CustomerEmail, validation.Required, customValidation.Email),
		validation.Field(&r.CustomerPhone, customValidation.Phone),
		validation.Field(&r.RFC, customValidation.RFC),
		validation.Field(&r.Currency, customValidation.Currency),
		validation.Field(&r.Items, validation.Required, validation.Length(1, 20)),
	)
}

// ToInput converts the request to a use case input. It must only be called after Validate.
func (r *CreateOrderRequest) ToInput() orderUseCase.CreateOrderInput {
	currency := r.Currency
	if currency == "" {
		currency = "MXN"
	}

	input := orderUseCase.CreateOrderInput{
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		RFC:           r.RFC,
		Currency:      currency,
	}
	for _, item := range r.Items {
		input.Items = append(input.Items, orderUseCase.CreateItemInput{
			ServiceID: item.ServiceID,
			PlanID:    item.PlanID,
			UnitPrice: decimal.RequireFromString(item.UnitPrice),
		})
	}
	return input
}

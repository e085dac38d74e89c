package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrderRequest() CreateOrderRequest {
	return CreateOrderRequest{
		CustomerEmail: "ana@example.com",
		CustomerPhone: "+525512345678",
		Items:         []CreateItemRequest{{ServiceID: "netflix", PlanID: "premium", UnitPrice: "199.00"}},
	}
}

func TestCreateOrderRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *CreateOrderRequest)
		wantErr string
	}{
		{name: "Success", mutate: func(r *CreateOrderRequest) {}},
		{name: "Success_WithRFC", mutate: func(r *CreateOrderRequest) { r.RFC = "XAXX010101000" }},
		{name: "Error_BadEmail", mutate: func(r *CreateOrderRequest) { r.CustomerEmail = "ana" }, wantErr: "customer_email"},
		{name: "Error_BadPhone", mutate: func(r *CreateOrderRequest) { r.CustomerPhone = "5512345678" }, wantErr: "customer_phone"},
		{name: "Error_LowerCurrency", mutate: func(r *CreateOrderRequest) { r.Currency = "mxn" }, wantErr: "currency"},
		{name: "Error_NoItems", mutate: func(r *CreateOrderRequest) { r.Items = nil }, wantErr: "items"},
		{
			name:    "Error_ItemWithoutPrice",
			mutate:  func(r *CreateOrderRequest) { r.Items[0].UnitPrice = "" },
			wantErr: "unit_price",
		},
		{
			name:    "Error_ItemNegativePrice",
			mutate:  func(r *CreateOrderRequest) { r.Items[0].UnitPrice = "-5" },
			wantErr: "unit_price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validOrderRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCreateOrderRequest_ToInput(t *testing.T) {
	req := validOrderRequest()
	require.NoError(t, req.Validate())

	input := req.ToInput()

	assert.Equal(t, "MXN", input.Currency)
	require.Len(t, input.Items, 1)
	assert.Equal(t, "199", input.Items[0].UnitPrice.String())
}

package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CheckoutRequest
		wantErr string
	}{
		{name: "Success_SPEI", req: CheckoutRequest{Method: "spei"}},
		{name: "Success_CoDiWithAmount", req: CheckoutRequest{Method: "codi", Amount: "199.00"}},
		{name: "Error_MissingMethod", req: CheckoutRequest{}, wantErr: "method"},
		{name: "Error_UnknownMethod", req: CheckoutRequest{Method: "oxxo"}, wantErr: "method"},
		{name: "Error_NegativeAmount", req: CheckoutRequest{Method: "spei", Amount: "-1"}, wantErr: "amount"},
		{name: "Error_TooManyDecimals", req: CheckoutRequest{Method: "spei", Amount: "1.001"}, wantErr: "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCheckoutRequest_ParsedAmount(t *testing.T) {
	assert.True(t, (&CheckoutRequest{}).ParsedAmount().IsZero())
	assert.Equal(t, "199.5", (&CheckoutRequest{Amount: "199.50"}).ParsedAmount().String())
}

func TestCancelTransactionRequest_Validate(t *testing.T) {
	assert.NoError(t, (&CancelTransactionRequest{Reason: "customer request"}).Validate())
	assert.Error(t, (&CancelTransactionRequest{Reason: "   "}).Validate())
	assert.Error(t, (&CancelTransactionRequest{}).Validate())
}

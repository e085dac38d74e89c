package dto

import (
	"encoding/base64"
	"time"

	paymentDomain "github.com/cuenty/fulfillment/internal/payment/domain"
)

// TransactionResponse represents a payment transaction in API responses.
type TransactionResponse struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	Reference   string     `json:"reference"`
	Method      string     `json:"method"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	State       string     `json:"state"`
	Reason      string     `json:"reason,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// MapTransactionToResponse converts a domain transaction to an API response.
func MapTransactionToResponse(txn *paymentDomain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          txn.ID.String(),
		OrderID:     txn.OrderID.String(),
		Reference:   txn.Reference,
		Method:      string(txn.Method),
		Amount:      txn.Amount.StringFixed(2),
		Currency:    txn.Currency,
		State:       string(txn.State),
		Reason:      txn.Reason,
		ExpiresAt:   txn.ExpiresAt,
		CompletedAt: txn.CompletedAt,
		CreatedAt:   txn.CreatedAt,
	}
}

// ListTransactionsResponse represents a page of transactions.
type ListTransactionsResponse struct {
	Data []TransactionResponse `json:"data"`
}

// MapTransactionsToListResponse converts domain transactions to a list response.
func MapTransactionsToListResponse(txns []*paymentDomain.Transaction) ListTransactionsResponse {
	data := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		data = append(data, MapTransactionToResponse(txn))
	}
	return ListTransactionsResponse{Data: data}
}

// AccountDetailsResponse tells the customer where to pay.
type AccountDetailsResponse struct {
	Bank          string `json:"bank"`
	Holder        string `json:"holder"`
	CLABE         string `json:"clabe"`
	AccountNumber string `json:"account_number,omitempty"`
	Concept       string `json:"concept"`
}

// CheckoutResponse is returned when a payment method is selected.
type CheckoutResponse struct {
	Reference      string                     `json:"reference"`
	Method         string                     `json:"method"`
	Amount         string                     `json:"amount"`
	Currency       string                     `json:"currency"`
	ExpiresAt      time.Time                  `json:"expires_at"`
	AccountDetails AccountDetailsResponse     `json:"account_details"`
	QRPayload      *paymentDomain.CoDiPayload `json:"qr_payload,omitempty"`
	QRCode         string                     `json:"qr_code,omitempty"`
}

// MapCheckoutToResponse converts a checkout to an API response. The QR image is base64 encoded.
func MapCheckoutToResponse(checkout *paymentDomain.Checkout) CheckoutResponse {
	txn := checkout.Transaction
	response := CheckoutResponse{
		Reference: txn.Reference,
		Method:    string(txn.Method),
		Amount:    txn.Amount.StringFixed(2),
		Currency:  txn.Currency,
		ExpiresAt: txn.ExpiresAt,
		AccountDetails: AccountDetailsResponse{
			Bank:          checkout.Details.Bank,
			Holder:        checkout.Details.Holder,
			CLABE:         checkout.Details.CLABE,
			AccountNumber: checkout.Details.AccountNumber,
			Concept:       checkout.Details.Concept,
		},
		QRPayload: checkout.Details.QR,
	}
	if len(checkout.QRCode) > 0 {
		response.QRCode = base64.StdEncoding.EncodeToString(checkout.QRCode)
	}
	return response
}

// StatisticsResponse summarizes transactions.
type StatisticsResponse struct {
	Total          int64  `json:"total"`
	Pending        int64  `json:"pending"`
	Completed      int64  `json:"completed"`
	Expired        int64  `json:"expired"`
	Cancelled      int64  `json:"cancelled"`
	Failed         int64  `json:"failed"`
	CollectedTotal string `json:"collected_total"`
	AverageTicket  string `json:"average_ticket"`
}

// MapStatisticsToResponse converts domain statistics to an API response.
func MapStatisticsToResponse(stats *paymentDomain.Statistics) StatisticsResponse {
	return StatisticsResponse{
		Total:          stats.Total,
		Pending:        stats.Pending,
		Completed:      stats.Completed,
		Expired:        stats.Expired,
		Cancelled:      stats.Cancelled,
		Failed:         stats.Failed,
		CollectedTotal: stats.CollectedTotal.StringFixed(2),
		AverageTicket:  stats.AverageTicket.StringFixed(2),
	}
}

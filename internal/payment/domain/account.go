package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a bank account that receives payments. The active account with the
// highest priority is used for new transactions.
type Account struct {
	ID            uuid.UUID
	Bank          string
	Holder        string
	CLABE         string
	AccountNumber string
	Priority      int
	Active        bool
	CreatedAt     time.Time
}

// AccountDetails tells the customer where and how to pay.
type AccountDetails struct {
	Bank          string
	Holder        string
	CLABE         string
	AccountNumber string
	Concept       string
	QR            *CoDiPayload
}

// Beneficiary is the receiving party of a CoDi charge.
type Beneficiary struct {
	Name    string `json:"name"`
	Account string `json:"account"`
}

// CoDiPayload is the structured content encoded in a CoDi QR code.
type CoDiPayload struct {
	Version     string      `json:"version"`
	Type        string      `json:"type"`
	Reference   string      `json:"reference"`
	Amount      string      `json:"amount"`
	Currency    string      `json:"currency"`
	Concept     string      `json:"concept"`
	Beneficiary Beneficiary `json:"beneficiary"`
}

// Concept returns the transfer concept customers must quote for a reference.
func Concept(reference string) string {
	return "PAGO " + reference
}

// NewAccountDetails builds the checkout details of txn paid into account.
func NewAccountDetails(txn *Transaction, account *Account) AccountDetails {
	details := AccountDetails{
		Bank:          account.Bank,
		Holder:        account.Holder,
		CLABE:         account.CLABE,
		AccountNumber: account.AccountNumber,
		Concept:       Concept(txn.Reference),
	}

	if txn.Method == MethodCoDi {
		details.QR = &CoDiPayload{
			Version:   "1.0.0",
			Type:      "CoDi",
			Reference: txn.Reference,
			Amount:    txn.Amount.StringFixed(2),
			Currency:  txn.Currency,
			Concept:   details.Concept,
			Beneficiary: Beneficiary{
				Name:    account.Holder,
				Account: account.CLABE,
			},
		}
	}

	return details
}

// Checkout is the result of creating a transaction for an order.
type Checkout struct {
	Transaction *Transaction
	Details     AccountDetails
	// QRCode is the rendered CoDi payload; empty for SPEI.
	QRCode []byte
}

// ResolveAmount returns the amount to charge for an order total. A zero requested
// amount charges the total; any other amount must equal it.
func ResolveAmount(requested, orderTotal decimal.Decimal) (decimal.Decimal, error) {
	if requested.IsZero() {
		return orderTotal, nil
	}
	if !requested.Equal(orderTotal) {
		return decimal.Decimal{}, ErrAmountMismatch
	}
	return orderTotal, nil
}

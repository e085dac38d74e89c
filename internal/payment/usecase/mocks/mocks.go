// Package mocks provides test doubles for the payment use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	paymentDomain "github.com/cuenty/fulfillment/internal/payment/domain"
	paymentUseCase "github.com/cuenty/fulfillment/internal/payment/usecase"
)

// MockPaymentUseCase is a mock implementation of usecase.PaymentUseCase.
type MockPaymentUseCase struct {
	mock.Mock
}

var _ paymentUseCase.PaymentUseCase = (*MockPaymentUseCase)(nil)

func txnOrNil(v any) *paymentDomain.Transaction {
	if v == nil {
		return nil
	}
	return v.(*paymentDomain.Transaction)
}

// CreateTransaction mocks PaymentUseCase.CreateTransaction.
func (m *MockPaymentUseCase) CreateTransaction(
	ctx context.Context,
	input paymentUseCase.CreateTransactionInput,
) (*paymentDomain.Checkout, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentDomain.Checkout), args.Error(1)
}

// GetByReference mocks PaymentUseCase.GetByReference.
func (m *MockPaymentUseCase) GetByReference(ctx context.Context, reference string) (*paymentDomain.Transaction, error) {
	args := m.Called(ctx, reference)
	return txnOrNil(args.Get(0)), args.Error(1)
}

// LatestPendingByOrder mocks PaymentUseCase.LatestPendingByOrder.
func (m *MockPaymentUseCase) LatestPendingByOrder(
	ctx context.Context,
	orderID uuid.UUID,
) (*paymentDomain.Transaction, error) {
	args := m.Called(ctx, orderID)
	return txnOrNil(args.Get(0)), args.Error(1)
}

// Lock mocks PaymentUseCase.Lock.
func (m *MockPaymentUseCase) Lock(ctx context.Context, reference string) (*paymentDomain.Transaction, error) {
	args := m.Called(ctx, reference)
	return txnOrNil(args.Get(0)), args.Error(1)
}

// LockOrder mocks PaymentUseCase.LockOrder.
func (m *MockPaymentUseCase) LockOrder(ctx context.Context, orderID uuid.UUID) (*orderDomain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderDomain.Order), args.Error(1)
}

// MarkCompleted mocks PaymentUseCase.MarkCompleted.
func (m *MockPaymentUseCase) MarkCompleted(
	ctx context.Context,
	reference string,
	payload []byte,
) (*paymentDomain.Transaction, bool, error) {
	args := m.Called(ctx, reference, payload)
	return txnOrNil(args.Get(0)), args.Bool(1), args.Error(2)
}

// MarkExpired mocks PaymentUseCase.MarkExpired.
func (m *MockPaymentUseCase) MarkExpired(ctx context.Context, reference string) (*paymentDomain.Transaction, error) {
	args := m.Called(ctx, reference)
	return txnOrNil(args.Get(0)), args.Error(1)
}

// MarkFailed mocks PaymentUseCase.MarkFailed.
func (m *MockPaymentUseCase) MarkFailed(
	ctx context.Context,
	reference, reason string,
) (*paymentDomain.Transaction, error) {
	args := m.Called(ctx, reference, reason)
	return txnOrNil(args.Get(0)), args.Error(1)
}

// Cancel mocks PaymentUseCase.Cancel.
func (m *MockPaymentUseCase) Cancel(ctx context.Context, reference, reason string) (*paymentDomain.Transaction, error) {
	args := m.Called(ctx, reference, reason)
	return txnOrNil(args.Get(0)), args.Error(1)
}

// CancelOrder mocks PaymentUseCase.CancelOrder.
func (m *MockPaymentUseCase) CancelOrder(ctx context.Context, orderID uuid.UUID) (*orderDomain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderDomain.Order), args.Error(1)
}

// ExpireStale mocks PaymentUseCase.ExpireStale.
func (m *MockPaymentUseCase) ExpireStale(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

// List mocks PaymentUseCase.List.
func (m *MockPaymentUseCase) List(
	ctx context.Context,
	filter paymentDomain.ListFilter,
) ([]*paymentDomain.Transaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*paymentDomain.Transaction), args.Error(1)
}

// Statistics mocks PaymentUseCase.Statistics.
func (m *MockPaymentUseCase) Statistics(
	ctx context.Context,
	filter paymentDomain.StatisticsFilter,
) (*paymentDomain.Statistics, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentDomain.Statistics), args.Error(1)
}

// CreateAccount mocks PaymentUseCase.CreateAccount.
func (m *MockPaymentUseCase) CreateAccount(
	ctx context.Context,
	input paymentUseCase.CreateAccountInput,
) (*paymentDomain.Account, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentDomain.Account), args.Error(1)
}

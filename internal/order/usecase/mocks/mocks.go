// Package mocks provides test doubles for the order use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	orderUseCase "github.com/cuenty/fulfillment/internal/order/usecase"
)

// MockOrderUseCase is a mock implementation of usecase.OrderUseCase.
type MockOrderUseCase struct {
	mock.Mock
}

var _ orderUseCase.OrderUseCase = (*MockOrderUseCase)(nil)

func orderOrNil(v any) *orderDomain.Order {
	if v == nil {
		return nil
	}
	return v.(*orderDomain.Order)
}

// Create mocks OrderUseCase.Create.
func (m *MockOrderUseCase) Create(
	ctx context.Context,
	input orderUseCase.CreateOrderInput,
) (*orderDomain.Order, error) {
	args := m.Called(ctx, input)
	return orderOrNil(args.Get(0)), args.Error(1)
}

// Get mocks OrderUseCase.Get.
func (m *MockOrderUseCase) Get(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	args := m.Called(ctx, id)
	return orderOrNil(args.Get(0)), args.Error(1)
}

// Lock mocks OrderUseCase.Lock.
func (m *MockOrderUseCase) Lock(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	args := m.Called(ctx, id)
	return orderOrNil(args.Get(0)), args.Error(1)
}

// Transition mocks OrderUseCase.Transition.
func (m *MockOrderUseCase) Transition(
	ctx context.Context,
	id uuid.UUID,
	event orderDomain.Event,
) (*orderDomain.Order, error) {
	args := m.Called(ctx, id, event)
	return orderOrNil(args.Get(0)), args.Error(1)
}

// AssignCredential mocks OrderUseCase.AssignCredential.
func (m *MockOrderUseCase) AssignCredential(ctx context.Context, itemID, credentialID uuid.UUID) error {
	args := m.Called(ctx, itemID, credentialID)
	return args.Error(0)
}

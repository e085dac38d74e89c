// Package mocks provides test doubles for the database package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTxManager is a mock implementation of database.TxManager.
// By default WithTx invokes fn with the given context and returns its error;
// set an expectation to override.
type MockTxManager struct {
	mock.Mock
	Passthrough bool
}

// NewPassthroughTxManager returns a MockTxManager that runs fn directly.
func NewPassthroughTxManager() *MockTxManager {
	return &MockTxManager{Passthrough: true}
}

// WithTx mocks TxManager.WithTx.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.Passthrough {
		return fn(ctx)
	}
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

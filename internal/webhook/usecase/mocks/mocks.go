// Package mocks provides test doubles for the webhook use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	webhookDomain "github.com/cuenty/fulfillment/internal/webhook/domain"
	webhookUseCase "github.com/cuenty/fulfillment/internal/webhook/usecase"
)

// MockWebhookUseCase is a mock implementation of usecase.WebhookUseCase.
type MockWebhookUseCase struct {
	mock.Mock
}

var _ webhookUseCase.WebhookUseCase = (*MockWebhookUseCase)(nil)

func eventOrNil(v any) *webhookDomain.WebhookEvent {
	if v == nil {
		return nil
	}
	return v.(*webhookDomain.WebhookEvent)
}

// Ingest mocks WebhookUseCase.Ingest.
func (m *MockWebhookUseCase) Ingest(
	ctx context.Context,
	input webhookUseCase.IngestInput,
) (*webhookDomain.WebhookEvent, error) {
	args := m.Called(ctx, input)
	return eventOrNil(args.Get(0)), args.Error(1)
}

// ProcessEvent mocks WebhookUseCase.ProcessEvent.
func (m *MockWebhookUseCase) ProcessEvent(ctx context.Context, id uuid.UUID) (*webhookDomain.WebhookEvent, error) {
	args := m.Called(ctx, id)
	return eventOrNil(args.Get(0)), args.Error(1)
}

// Replay mocks WebhookUseCase.Replay.
func (m *MockWebhookUseCase) Replay(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

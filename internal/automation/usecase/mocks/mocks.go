// Package mocks provides test doubles for the automation use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	automationUseCase "github.com/cuenty/fulfillment/internal/automation/usecase"
)

// MockAutomationUseCase is a mock implementation of usecase.AutomationUseCase.
type MockAutomationUseCase struct {
	mock.Mock
}

var _ automationUseCase.AutomationUseCase = (*MockAutomationUseCase)(nil)

func workflowOrNil(v any) *automationDomain.Workflow {
	if v == nil {
		return nil
	}
	return v.(*automationDomain.Workflow)
}

func logsOrNil(v any) []*automationDomain.AutomationLog {
	if v == nil {
		return nil
	}
	return v.([]*automationDomain.AutomationLog)
}

// CreateWorkflow mocks AutomationUseCase.CreateWorkflow.
func (m *MockAutomationUseCase) CreateWorkflow(
	ctx context.Context,
	input automationUseCase.CreateWorkflowInput,
) (*automationDomain.Workflow, error) {
	args := m.Called(ctx, input)
	return workflowOrNil(args.Get(0)), args.Error(1)
}

// ListWorkflows mocks AutomationUseCase.ListWorkflows.
func (m *MockAutomationUseCase) ListWorkflows(
	ctx context.Context,
	filter automationDomain.ListFilter,
) ([]*automationDomain.Workflow, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*automationDomain.Workflow), args.Error(1)
}

// ToggleWorkflow mocks AutomationUseCase.ToggleWorkflow.
func (m *MockAutomationUseCase) ToggleWorkflow(
	ctx context.Context,
	id uuid.UUID,
	active *bool,
) (*automationDomain.Workflow, error) {
	args := m.Called(ctx, id, active)
	return workflowOrNil(args.Get(0)), args.Error(1)
}

// ListLogs mocks AutomationUseCase.ListLogs.
func (m *MockAutomationUseCase) ListLogs(
	ctx context.Context,
	workflowID uuid.UUID,
	offset, limit int,
) ([]*automationDomain.AutomationLog, error) {
	args := m.Called(ctx, workflowID, offset, limit)
	return logsOrNil(args.Get(0)), args.Error(1)
}

// Execute mocks AutomationUseCase.Execute.
func (m *MockAutomationUseCase) Execute(
	ctx context.Context,
	event string,
	payload map[string]any,
) ([]*automationDomain.AutomationLog, error) {
	args := m.Called(ctx, event, payload)
	return logsOrNil(args.Get(0)), args.Error(1)
}

// Statistics mocks AutomationUseCase.Statistics.
func (m *MockAutomationUseCase) Statistics(ctx context.Context) (*automationDomain.Statistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*automationDomain.Statistics), args.Error(1)
}

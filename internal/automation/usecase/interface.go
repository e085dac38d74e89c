// Package usecase implements the workflow automation engine and its admin operations.
// Actions never write order or inventory rows directly: every effect goes through the
// owning component's use case, which wraps the precondition check and the write in
// one transaction.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	inventoryDomain "github.com/cuenty/fulfillment/internal/inventory/domain"
	inventoryUseCase "github.com/cuenty/fulfillment/internal/inventory/usecase"
	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	taxDomain "github.com/cuenty/fulfillment/internal/tax/domain"
)

// WorkflowRepository defines workflow and automation log persistence.
type WorkflowRepository interface {
	Create(ctx context.Context, workflow *automationDomain.Workflow) error
	GetByID(ctx context.Context, id uuid.UUID) (*automationDomain.Workflow, error)
	List(ctx context.Context, filter automationDomain.ListFilter) ([]*automationDomain.Workflow, error)
	ListActiveByTrigger(ctx context.Context, event string) ([]*automationDomain.Workflow, error)
	UpdateActive(ctx context.Context, workflow *automationDomain.Workflow) error
	IncrementExecution(ctx context.Context, id uuid.UUID, at time.Time) error
	CreateLog(ctx context.Context, log *automationDomain.AutomationLog) error
	ListLogs(ctx context.Context, workflowID uuid.UUID, offset, limit int) ([]*automationDomain.AutomationLog, error)
	Statistics(ctx context.Context, top int) (*automationDomain.Statistics, error)
}

// OrderService is the part of the order coordinator the actions use.
type OrderService interface {
	Get(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error)
	Transition(ctx context.Context, id uuid.UUID, event orderDomain.Event) (*orderDomain.Order, error)
}

// CredentialService is the part of the credential store the actions use.
type CredentialService interface {
	ClaimAvailable(
		ctx context.Context,
		serviceID, planID string,
		itemID uuid.UUID,
	) (*inventoryDomain.Credential, error)
	Reveal(ctx context.Context, credentialID uuid.UUID) (*inventoryUseCase.Revealed, error)
}

// TaxService is the part of the tax ledger the actions use.
type TaxService interface {
	ValidateRFC(ctx context.Context, orderID uuid.UUID, rfc string) (*taxDomain.Profile, error)
	ApplyTax(
		ctx context.Context,
		orderID uuid.UUID,
		total decimal.Decimal,
		currency string,
		rate decimal.Decimal,
	) (*taxDomain.Entry, bool, error)
}

// Trigger is the event a workflow reacts to.
type Trigger struct {
	Event   string
	Payload map[string]any
}

// ActionExecutor runs one action variant. The returned output is recorded in the
// automation log even when err is not nil.
type ActionExecutor interface {
	Execute(ctx context.Context, action automationDomain.Action, trigger Trigger) (map[string]any, error)
}

// Engine fires the active workflows of an event.
type Engine interface {
	// Fire runs every matching workflow and returns one log per execution. Action
	// failures are recorded in the logs, never returned.
	Fire(ctx context.Context, event string, payload map[string]any) ([]*automationDomain.AutomationLog, error)
}

// CreateWorkflowInput describes a new workflow.
type CreateWorkflowInput struct {
	Name              string
	TriggerEvent      string
	TriggerConditions map[string]any
	Actions           []automationDomain.Action
	Priority          int
	Active            bool
}

// AutomationUseCase is the workflow admin surface.
type AutomationUseCase interface {
	CreateWorkflow(ctx context.Context, input CreateWorkflowInput) (*automationDomain.Workflow, error)
	ListWorkflows(ctx context.Context, filter automationDomain.ListFilter) ([]*automationDomain.Workflow, error)
	// ToggleWorkflow sets the active flag, or flips it when active is nil.
	ToggleWorkflow(ctx context.Context, id uuid.UUID, active *bool) (*automationDomain.Workflow, error)
	ListLogs(ctx context.Context, workflowID uuid.UUID, offset, limit int) ([]*automationDomain.AutomationLog, error)
	// Execute fires event by hand, the same way a domain event does.
	Execute(ctx context.Context, event string, payload map[string]any) ([]*automationDomain.AutomationLog, error)
	Statistics(ctx context.Context) (*automationDomain.Statistics, error)
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	"github.com/cuenty/fulfillment/internal/database"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
)

const topWorkflows = 10

type automationUseCase struct {
	txManager    database.TxManager
	workflowRepo WorkflowRepository
	engine       Engine
	logger       *slog.Logger
	now          func() time.Time
}

// NewAutomationUseCase creates the workflow admin use case.
func NewAutomationUseCase(
	txManager database.TxManager,
	workflowRepo WorkflowRepository,
	engine Engine,
	logger *slog.Logger,
) AutomationUseCase {
	return &automationUseCase{
		txManager:    txManager,
		workflowRepo: workflowRepo,
		engine:       engine,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreateWorkflow validates every action against its parameter schema before storing,
// so a malformed workflow never reaches the engine.
func (a *automationUseCase) CreateWorkflow(
	ctx context.Context,
	input CreateWorkflowInput,
) (*automationDomain.Workflow, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.Wrap(automationDomain.ErrInvalidWorkflow, "name is required")
	}
	event := strings.TrimSpace(input.TriggerEvent)
	if event == "" {
		return nil, apperrors.Wrap(automationDomain.ErrInvalidWorkflow, "triggerEvent is required")
	}
	if len(input.Actions) == 0 {
		return nil, apperrors.Wrap(automationDomain.ErrInvalidWorkflow, "at least one action is required")
	}
	for i, action := range input.Actions {
		if err := action.Validate(); err != nil {
			return nil, apperrors.Wrap(
				automationDomain.ErrInvalidWorkflow,
				fmt.Sprintf("action %d (%s): %v", i, action.Type, err),
			)
		}
	}

	conditions := input.TriggerConditions
	if conditions == nil {
		conditions = map[string]any{}
	}

	now := a.now()
	workflow := &automationDomain.Workflow{
		ID:                uuid.Must(uuid.NewV7()),
		Name:              name,
		TriggerEvent:      event,
		TriggerConditions: conditions,
		Actions:           input.Actions,
		Priority:          input.Priority,
		Active:            input.Active,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := a.workflowRepo.Create(ctx, workflow); err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "workflow created",
		slog.String("workflow_id", workflow.ID.String()),
		slog.String("trigger_event", workflow.TriggerEvent),
		slog.Int("priority", workflow.Priority),
	)
	return workflow, nil
}

func (a *automationUseCase) ListWorkflows(
	ctx context.Context,
	filter automationDomain.ListFilter,
) ([]*automationDomain.Workflow, error) {
	return a.workflowRepo.List(ctx, filter)
}

func (a *automationUseCase) ToggleWorkflow(
	ctx context.Context,
	id uuid.UUID,
	active *bool,
) (*automationDomain.Workflow, error) {
	var workflow *automationDomain.Workflow

	err := a.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		workflow, err = a.workflowRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		workflow.Toggle(active, a.now())
		return a.workflowRepo.UpdateActive(ctx, workflow)
	})
	if err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "workflow toggled",
		slog.String("workflow_id", workflow.ID.String()),
		slog.Bool("active", workflow.Active),
	)
	return workflow, nil
}

func (a *automationUseCase) ListLogs(
	ctx context.Context,
	workflowID uuid.UUID,
	offset, limit int,
) ([]*automationDomain.AutomationLog, error) {
	if _, err := a.workflowRepo.GetByID(ctx, workflowID); err != nil {
		return nil, err
	}
	return a.workflowRepo.ListLogs(ctx, workflowID, offset, limit)
}

// Execute fires the event outside any caller transaction; each action commits on its own.
func (a *automationUseCase) Execute(
	ctx context.Context,
	event string,
	payload map[string]any,
) ([]*automationDomain.AutomationLog, error) {
	if strings.TrimSpace(event) == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "event is required")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return a.engine.Fire(database.Detach(ctx), event, payload)
}

func (a *automationUseCase) Statistics(ctx context.Context) (*automationDomain.Statistics, error) {
	return a.workflowRepo.Statistics(ctx, topWorkflows)
}

package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	"github.com/cuenty/fulfillment/internal/metrics"
)

// automationUseCaseWithMetrics decorates AutomationUseCase with metrics instrumentation.
type automationUseCaseWithMetrics struct {
	next    AutomationUseCase
	metrics metrics.BusinessMetrics
}

// NewAutomationUseCaseWithMetrics wraps an AutomationUseCase with metrics recording.
func NewAutomationUseCaseWithMetrics(useCase AutomationUseCase, m metrics.BusinessMetrics) AutomationUseCase {
	return &automationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *automationUseCaseWithMetrics) record(ctx context.Context, operation, status string, start time.Time) {
	a.metrics.RecordOperation(ctx, "automation", operation, status)
	a.metrics.RecordDuration(ctx, "automation", operation, time.Since(start), status)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// CreateWorkflow records metrics for workflow creation.
func (a *automationUseCaseWithMetrics) CreateWorkflow(
	ctx context.Context,
	input CreateWorkflowInput,
) (*automationDomain.Workflow, error) {
	start := time.Now()
	workflow, err := a.next.CreateWorkflow(ctx, input)
	a.record(ctx, "workflow_create", statusOf(err), start)
	return workflow, err
}

// ListWorkflows records metrics for workflow listing.
func (a *automationUseCaseWithMetrics) ListWorkflows(
	ctx context.Context,
	filter automationDomain.ListFilter,
) ([]*automationDomain.Workflow, error) {
	start := time.Now()
	workflows, err := a.next.ListWorkflows(ctx, filter)
	a.record(ctx, "workflow_list", statusOf(err), start)
	return workflows, err
}

// ToggleWorkflow records metrics for workflow toggling.
func (a *automationUseCaseWithMetrics) ToggleWorkflow(
	ctx context.Context,
	id uuid.UUID,
	active *bool,
) (*automationDomain.Workflow, error) {
	start := time.Now()
	workflow, err := a.next.ToggleWorkflow(ctx, id, active)
	a.record(ctx, "workflow_toggle", statusOf(err), start)
	return workflow, err
}

// ListLogs records metrics for automation log listing.
func (a *automationUseCaseWithMetrics) ListLogs(
	ctx context.Context,
	workflowID uuid.UUID,
	offset, limit int,
) ([]*automationDomain.AutomationLog, error) {
	start := time.Now()
	logs, err := a.next.ListLogs(ctx, workflowID, offset, limit)
	a.record(ctx, "workflow_logs", statusOf(err), start)
	return logs, err
}

// Execute records one operation for the trigger and one per workflow execution,
// labelled with its outcome.
func (a *automationUseCaseWithMetrics) Execute(
	ctx context.Context,
	event string,
	payload map[string]any,
) ([]*automationDomain.AutomationLog, error) {
	start := time.Now()
	logs, err := a.next.Execute(ctx, event, payload)
	a.record(ctx, "automation_fire", statusOf(err), start)
	for _, log := range logs {
		a.metrics.RecordOperation(ctx, "automation", "workflow_execution", string(log.Outcome))
	}
	return logs, err
}

// Statistics records metrics for statistics reads.
func (a *automationUseCaseWithMetrics) Statistics(ctx context.Context) (*automationDomain.Statistics, error) {
	start := time.Now()
	stats, err := a.next.Statistics(ctx)
	a.record(ctx, "automation_statistics", statusOf(err), start)
	return stats, err
}

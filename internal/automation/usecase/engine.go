package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	"github.com/cuenty/fulfillment/internal/telemetry"
)

type engine struct {
	workflowRepo WorkflowRepository
	executors    map[automationDomain.ActionType]ActionExecutor
	logger       *slog.Logger
	now          func() time.Time
}

// NewEngine creates the workflow engine over a dispatch table of action executors.
func NewEngine(
	workflowRepo WorkflowRepository,
	executors map[automationDomain.ActionType]ActionExecutor,
	logger *slog.Logger,
) Engine {
	return &engine{
		workflowRepo: workflowRepo,
		executors:    executors,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Fire runs the active workflows of event in priority order. Equal priorities run in
// creation order. Workflows run one after another so two of them never race on the
// same order.
func (e *engine) Fire(
	ctx context.Context,
	event string,
	payload map[string]any,
) ([]*automationDomain.AutomationLog, error) {
	ctx, span := telemetry.StartSpan(ctx, "automation.fire", attribute.String("automation.event", event))
	defer span.End()

	workflows, err := e.workflowRepo.ListActiveByTrigger(ctx, event)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	trigger := Trigger{Event: event, Payload: payload}
	var logs []*automationDomain.AutomationLog
	for _, workflow := range workflows {
		if !workflow.Matches(payload) {
			continue
		}
		logs = append(logs, e.execute(ctx, workflow, trigger))
	}

	span.SetAttributes(attribute.Int("automation.executions", len(logs)))
	return logs, nil
}

func (e *engine) execute(
	ctx context.Context,
	workflow *automationDomain.Workflow,
	trigger Trigger,
) *automationDomain.AutomationLog {
	ctx = telemetry.WithLogAttrs(ctx, slog.String("workflow_id", workflow.ID.String()))
	start := time.Now()

	results := make([]automationDomain.ActionResult, 0, len(workflow.Actions))
	for i, action := range workflow.Actions {
		result := e.runAction(ctx, i, action, trigger)
		if !result.Success {
			e.logger.WarnContext(ctx, "workflow action failed",
				slog.Int("action_index", i),
				slog.String("action_type", string(action.Type)),
				slog.String("error", result.Error),
			)
		}
		results = append(results, result)
	}

	now := e.now()
	log := automationDomain.NewAutomationLog(workflow, trigger.Event, trigger.Payload, results, time.Since(start), now)

	if err := e.workflowRepo.IncrementExecution(ctx, workflow.ID, now); err != nil {
		e.logger.ErrorContext(ctx, "failed to increment workflow execution count", slog.Any("error", err))
	}
	if err := e.workflowRepo.CreateLog(ctx, log); err != nil {
		e.logger.ErrorContext(ctx, "failed to write automation log", slog.Any("error", err))
	}

	e.logger.InfoContext(ctx, "workflow executed",
		slog.String("workflow", workflow.Name),
		slog.String("event", trigger.Event),
		slog.String("outcome", string(log.Outcome)),
		slog.Int64("duration_ms", log.DurationMs),
	)
	return log
}

// runAction executes one action. Errors and panics become a failed result.
func (e *engine) runAction(
	ctx context.Context,
	index int,
	action automationDomain.Action,
	trigger Trigger,
) (result automationDomain.ActionResult) {
	start := time.Now()
	result = automationDomain.ActionResult{Index: index, Type: action.Type}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("panic: %v", r)
		}
		result.DurationMs = time.Since(start).Milliseconds()
	}()

	executor, ok := e.executors[action.Type]
	if !ok {
		result.Error = automationDomain.ErrNoExecutor.Error()
		return result
	}

	output, err := executor.Execute(ctx, action, trigger)
	result.Output = output
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	return result
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outcome summarizes a workflow execution.
type Outcome string

const (
	// OutcomeSuccess means every action succeeded.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailed means at least one action failed. The remaining actions still ran.
	OutcomeFailed Outcome = "failed"
)

// ActionResult is the recorded attempt of one action.
type ActionResult struct {
	Index      int            `json:"index"`
	Type       ActionType     `json:"type"`
	Success    bool           `json:"success"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"durationMs"`
}

// AutomationLog records one workflow execution attempt. Logs are append-only.
type AutomationLog struct {
	ID              uuid.UUID
	WorkflowID      uuid.UUID
	TriggerEvent    string
	TriggerData     map[string]any
	ActionsExecuted []ActionResult
	Outcome         Outcome
	ErrorMessage    string
	DurationMs      int64
	CreatedAt       time.Time
}

// NewAutomationLog summarizes the action results of a workflow execution.
func NewAutomationLog(
	workflow *Workflow,
	event string,
	payload map[string]any,
	results []ActionResult,
	elapsed time.Duration,
	now time.Time,
) *AutomationLog {
	log := &AutomationLog{
		ID:              uuid.Must(uuid.NewV7()),
		WorkflowID:      workflow.ID,
		TriggerEvent:    event,
		TriggerData:     payload,
		ActionsExecuted: results,
		Outcome:         OutcomeSuccess,
		DurationMs:      elapsed.Milliseconds(),
		CreatedAt:       now,
	}

	for _, result := range results {
		if result.Success {
			continue
		}
		log.Outcome = OutcomeFailed
		if log.ErrorMessage == "" {
			log.ErrorMessage = string(result.Type) + ": " + result.Error
		}
	}
	return log
}

// OutcomeStatistics aggregates executions with one outcome.
type OutcomeStatistics struct {
	Outcome       Outcome
	Count         int64
	AvgDurationMs float64
}

// WorkflowStatistics is the execution summary of one workflow.
type WorkflowStatistics struct {
	ID             uuid.UUID
	Name           string
	TriggerEvent   string
	ExecutionCount int64
	LastExecutedAt *time.Time
}

// Statistics summarizes automation activity.
type Statistics struct {
	TotalWorkflows  int64
	ActiveWorkflows int64
	TotalExecutions int64
	ByOutcome       []OutcomeStatistics
	TopWorkflows    []WorkflowStatistics
}

// ListFilter pages through workflows.
type ListFilter struct {
	TriggerEvent string
	Offset       int
	Limit        int
}

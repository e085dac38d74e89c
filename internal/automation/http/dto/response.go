package dto

import (
	"time"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
)

// WorkflowResponse represents a workflow in API responses.
type WorkflowResponse struct {
	ID                string                    `json:"id"`
	Name              string                    `json:"name"`
	TriggerEvent      string                    `json:"triggerEvent"`
	TriggerConditions map[string]any            `json:"triggerConditions"`
	Actions           []automationDomain.Action `json:"actions"`
	Priority          int                       `json:"priority"`
	Active            bool                      `json:"active"`
	ExecutionCount    int64                     `json:"executionCount"`
	LastExecutedAt    *time.Time                `json:"lastExecutedAt,omitempty"`
	CreatedAt         time.Time                 `json:"createdAt"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
}

// MapWorkflowToResponse converts a domain workflow to an API response.
func MapWorkflowToResponse(workflow *automationDomain.Workflow) WorkflowResponse {
	return WorkflowResponse{
		ID:                workflow.ID.String(),
		Name:              workflow.Name,
		TriggerEvent:      workflow.TriggerEvent,
		TriggerConditions: workflow.TriggerConditions,
		Actions:           workflow.Actions,
		Priority:          workflow.Priority,
		Active:            workflow.Active,
		ExecutionCount:    workflow.ExecutionCount,
		LastExecutedAt:    workflow.LastExecutedAt,
		CreatedAt:         workflow.CreatedAt,
		UpdatedAt:         workflow.UpdatedAt,
	}
}

// ListWorkflowsResponse represents a page of workflows.
type ListWorkflowsResponse struct {
	Data []WorkflowResponse `json:"data"`
}

// MapWorkflowsToListResponse converts domain workflows to a list response.
func MapWorkflowsToListResponse(workflows []*automationDomain.Workflow) ListWorkflowsResponse {
	data := make([]WorkflowResponse, 0, len(workflows))
	for _, w := range workflows {
		data = append(data, MapWorkflowToResponse(w))
	}
	return ListWorkflowsResponse{Data: data}
}

// AutomationLogResponse represents one workflow execution.
type AutomationLogResponse struct {
	ID              string                          `json:"id"`
	WorkflowID      string                          `json:"workflowId"`
	TriggerEvent    string                          `json:"triggerEvent"`
	TriggerData     map[string]any                  `json:"triggerData"`
	ActionsExecuted []automationDomain.ActionResult `json:"actionsExecuted"`
	Outcome         string                          `json:"outcome"`
	ErrorMessage    string                          `json:"errorMessage,omitempty"`
	DurationMs      int64                           `json:"durationMs"`
	CreatedAt       time.Time                       `json:"createdAt"`
}

// MapLogToResponse converts an automation log to an API response.
func MapLogToResponse(log *automationDomain.AutomationLog) AutomationLogResponse {
	actions := log.ActionsExecuted
	if actions == nil {
		actions = []automationDomain.ActionResult{}
	}
	return AutomationLogResponse{
		ID:              log.ID.String(),
		WorkflowID:      log.WorkflowID.String(),
		TriggerEvent:    log.TriggerEvent,
		TriggerData:     log.TriggerData,
		ActionsExecuted: actions,
		Outcome:         string(log.Outcome),
		ErrorMessage:    log.ErrorMessage,
		DurationMs:      log.DurationMs,
		CreatedAt:       log.CreatedAt,
	}
}

// ListLogsResponse represents a page of automation logs.
type ListLogsResponse struct {
	Data []AutomationLogResponse `json:"data"`
}

// MapLogsToListResponse converts automation logs to a list response.
func MapLogsToListResponse(logs []*automationDomain.AutomationLog) ListLogsResponse {
	data := make([]AutomationLogResponse, 0, len(logs))
	for _, log := range logs {
		data = append(data, MapLogToResponse(log))
	}
	return ListLogsResponse{Data: data}
}

// ExecuteResponse reports a manual trigger.
type ExecuteResponse struct {
	TriggerEvent string                  `json:"triggerEvent"`
	Executed     int                     `json:"executed"`
	Logs         []AutomationLogResponse `json:"logs"`
}

// MapExecuteToResponse summarizes the executions of a manual trigger.
func MapExecuteToResponse(event string, logs []*automationDomain.AutomationLog) ExecuteResponse {
	return ExecuteResponse{
		TriggerEvent: event,
		Executed:     len(logs),
		Logs:         MapLogsToListResponse(logs).Data,
	}
}

// OutcomeStatisticsResponse aggregates executions with one outcome.
type OutcomeStatisticsResponse struct {
	Outcome       string  `json:"outcome"`
	Count         int64   `json:"count"`
	AvgDurationMs float64 `json:"avgDurationMs"`
}

// WorkflowStatisticsResponse is the execution summary of one workflow.
type WorkflowStatisticsResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	TriggerEvent   string     `json:"triggerEvent"`
	ExecutionCount int64      `json:"executionCount"`
	LastExecutedAt *time.Time `json:"lastExecutedAt,omitempty"`
}

// StatisticsResponse summarizes automation activity.
type StatisticsResponse struct {
	TotalWorkflows  int64                        `json:"totalWorkflows"`
	ActiveWorkflows int64                        `json:"activeWorkflows"`
	TotalExecutions int64                        `json:"totalExecutions"`
	ByOutcome       []OutcomeStatisticsResponse  `json:"byOutcome"`
	TopWorkflows    []WorkflowStatisticsResponse `json:"topWorkflows"`
}

// MapStatisticsToResponse converts automation statistics to an API response.
func MapStatisticsToResponse(stats *automationDomain.Statistics) StatisticsResponse {
	response := StatisticsResponse{
		TotalWorkflows:  stats.TotalWorkflows,
		ActiveWorkflows: stats.ActiveWorkflows,
		TotalExecutions: stats.TotalExecutions,
		ByOutcome:       make([]OutcomeStatisticsResponse, 0, len(stats.ByOutcome)),
		TopWorkflows:    make([]WorkflowStatisticsResponse, 0, len(stats.TopWorkflows)),
	}
	for _, o := range stats.ByOutcome {
		response.ByOutcome = append(response.ByOutcome, OutcomeStatisticsResponse{
			Outcome:       string(o.Outcome),
			Count:         o.Count,
			AvgDurationMs: o.AvgDurationMs,
		})
	}
	for _, w := range stats.TopWorkflows {
		response.TopWorkflows = append(response.TopWorkflows, WorkflowStatisticsResponse{
			ID:             w.ID.String(),
			Name:           w.Name,
			TriggerEvent:   w.TriggerEvent,
			ExecutionCount: w.ExecutionCount,
			LastExecutedAt: w.LastExecutedAt,
		})
	}
	return response
}

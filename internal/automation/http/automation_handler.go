// Package http provides HTTP handlers for workflow administration.
package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	"github.com/cuenty/fulfillment/internal/automation/http/dto"
	automationUseCase "github.com/cuenty/fulfillment/internal/automation/usecase"
	"github.com/cuenty/fulfillment/internal/httputil"
	customValidation "github.com/cuenty/fulfillment/internal/validation"
)

// AutomationHandler handles workflow admin requests.
type AutomationHandler struct {
	automationUseCase automationUseCase.AutomationUseCase
	logger            *slog.Logger
}

// NewAutomationHandler creates a new automation handler.
func NewAutomationHandler(
	automationUseCase automationUseCase.AutomationUseCase,
	logger *slog.Logger,
) *AutomationHandler {
	return &AutomationHandler{
		automationUseCase: automationUseCase,
		logger:            logger,
	}
}

func (h *AutomationHandler) workflowID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid workflow id"), h.logger)
		return uuid.Nil, false
	}
	return id, true
}

// CreateWorkflowHandler creates a workflow.
// POST /workflows
// Returns 201 Created with the stored workflow.
func (h *AutomationHandler) CreateWorkflowHandler(c *gin.Context) {
	var req dto.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	workflow, err := h.automationUseCase.CreateWorkflow(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapWorkflowToResponse(workflow))
}

// ListWorkflowsHandler lists workflows in execution order.
// GET /workflows?triggerEvent=payment.confirmed&offset=0&limit=50
func (h *AutomationHandler) ListWorkflowsHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	workflows, err := h.automationUseCase.ListWorkflows(c.Request.Context(), automationDomain.ListFilter{
		TriggerEvent: c.Query("triggerEvent"),
		Offset:       offset,
		Limit:        limit,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapWorkflowsToListResponse(workflows))
}

// ToggleWorkflowHandler activates or deactivates a workflow.
// PUT /workflows/:id/toggle
// An empty body flips the flag; {"active": bool} sets it.
func (h *AutomationHandler) ToggleWorkflowHandler(c *gin.Context) {
	id, ok := h.workflowID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.ToggleWorkflowRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			httputil.HandleValidationErrorGin(c, err, h.logger)
			return
		}
	}

	workflow, err := h.automationUseCase.ToggleWorkflow(c.Request.Context(), id, req.Active)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapWorkflowToResponse(workflow))
}

// ListLogsHandler lists the executions of a workflow, newest first.
// GET /workflows/:id/logs?offset=0&limit=50
func (h *AutomationHandler) ListLogsHandler(c *gin.Context) {
	id, ok := h.workflowID(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	logs, err := h.automationUseCase.ListLogs(c.Request.Context(), id, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapLogsToListResponse(logs))
}

// ExecuteHandler fires an event by hand and waits for its workflows.
// POST /automation/execute
func (h *AutomationHandler) ExecuteHandler(c *gin.Context) {
	var req dto.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	logs, err := h.automationUseCase.Execute(c.Request.Context(), req.TriggerEvent, req.TriggerData)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapExecuteToResponse(req.TriggerEvent, logs))
}

// StatisticsHandler summarizes automation activity.
// GET /automation/statistics
func (h *AutomationHandler) StatisticsHandler(c *gin.Context) {
	stats, err := h.automationUseCase.Statistics(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatisticsToResponse(stats))
}

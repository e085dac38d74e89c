package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	"github.com/cuenty/fulfillment/internal/automation/http/dto"
	automationUseCase "github.com/cuenty/fulfillment/internal/automation/usecase"
	"github.com/cuenty/fulfillment/internal/automation/usecase/mocks"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
)

func setupTestHandler(t *testing.T) (*AutomationHandler, *mocks.MockAutomationUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockAutomationUseCase{}
	t.Cleanup(func() { mockUseCase.AssertExpectations(t) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAutomationHandler(mockUseCase, logger), mockUseCase
}

func sampleWorkflow() *automationDomain.Workflow {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &automationDomain.Workflow{
		ID:                uuid.Must(uuid.NewV7()),
		Name:              "deliver credentials",
		TriggerEvent:      "payment.confirmed",
		TriggerConditions: map[string]any{},
		Actions:           []automationDomain.Action{{Type: automationDomain.ActionAssignCredentials}},
		Priority:          10,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestAutomationHandler_CreateWorkflowHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		workflow := sampleWorkflow()

		mockUseCase.On("CreateWorkflow", mock.Anything, mock.MatchedBy(func(in automationUseCase.CreateWorkflowInput) bool {
			return in.Name == "deliver credentials" && in.Active && len(in.Actions) == 1
		})).Return(workflow, nil).Once()

		c, w := createTestContext(http.MethodPost, "/workflows", map[string]any{
			"name":         "deliver credentials",
			"triggerEvent": "payment.confirmed",
			"actions":      []map[string]any{{"type": "assign_credentials"}},
			"priority":     10,
		})

		handler.CreateWorkflowHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response dto.WorkflowResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, workflow.ID.String(), response.ID)
		assert.Equal(t, "payment.confirmed", response.TriggerEvent)
	})

	t.Run("Error_ValidationFails", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/workflows", map[string]any{"name": "x"})

		handler.CreateWorkflowHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_InvalidActionParams", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("CreateWorkflow", mock.Anything, mock.Anything).
			Return(nil, apperrors.Wrap(automationDomain.ErrInvalidWorkflow, "action 0 (notification): channel: must be a valid value")).
			Once()

		c, w := createTestContext(http.MethodPost, "/workflows", map[string]any{
			"name":         "w",
			"triggerEvent": "payment.confirmed",
			"actions":      []map[string]any{{"type": "notification", "params": map[string]any{"channel": "fax"}}},
		})

		handler.CreateWorkflowHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "channel")
	})
}

func TestAutomationHandler_ListWorkflowsHandler(t *testing.T) {
	t.Run("Success_FilterByTrigger", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("ListWorkflows", mock.Anything, automationDomain.ListFilter{
			TriggerEvent: "order.cancelled",
			Offset:       0,
			Limit:        50,
		}).Return([]*automationDomain.Workflow{sampleWorkflow()}, nil).Once()

		c, w := createTestContext(http.MethodGet, "/workflows?triggerEvent=order.cancelled", nil)

		handler.ListWorkflowsHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.ListWorkflowsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 1)
	})

	t.Run("Error_InvalidPagination", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/workflows?limit=1000", nil)

		handler.ListWorkflowsHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestAutomationHandler_ToggleWorkflowHandler(t *testing.T) {
	t.Run("Success_EmptyBodyFlips", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		workflow := sampleWorkflow()
		workflow.Active = false
		mockUseCase.On("ToggleWorkflow", mock.Anything, workflow.ID, (*bool)(nil)).Return(workflow, nil).Once()

		c, w := createTestContext(http.MethodPut, "/workflows/"+workflow.ID.String()+"/toggle", nil)
		c.Params = gin.Params{{Key: "id", Value: workflow.ID.String()}}

		handler.ToggleWorkflowHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"active":false`)
	})

	t.Run("Success_ExplicitValue", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		workflow := sampleWorkflow()
		mockUseCase.On("ToggleWorkflow", mock.Anything, workflow.ID, mock.MatchedBy(func(active *bool) bool {
			return active != nil && *active
		})).Return(workflow, nil).Once()

		c, w := createTestContext(http.MethodPut, "/workflows/"+workflow.ID.String()+"/toggle",
			map[string]any{"active": true})
		c.Params = gin.Params{{Key: "id", Value: workflow.ID.String()}}

		handler.ToggleWorkflowHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_InvalidID", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPut, "/workflows/abc/toggle", nil)
		c.Params = gin.Params{{Key: "id", Value: "abc"}}

		handler.ToggleWorkflowHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		id := uuid.Must(uuid.NewV7())
		mockUseCase.On("ToggleWorkflow", mock.Anything, id, (*bool)(nil)).
			Return(nil, automationDomain.ErrWorkflowNotFound).Once()

		c, w := createTestContext(http.MethodPut, "/workflows/"+id.String()+"/toggle", nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		handler.ToggleWorkflowHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAutomationHandler_ListLogsHandler(t *testing.T) {
	handler, mockUseCase := setupTestHandler(t)
	workflow := sampleWorkflow()
	log := automationDomain.NewAutomationLog(workflow, "payment.confirmed", map[string]any{"orderId": "x"},
		[]automationDomain.ActionResult{{Index: 0, Type: automationDomain.ActionAssignCredentials, Error: "credentials exhausted"}},
		15*time.Millisecond, workflow.CreatedAt)
	mockUseCase.On("ListLogs", mock.Anything, workflow.ID, 0, 50).
		Return([]*automationDomain.AutomationLog{log}, nil).Once()

	c, w := createTestContext(http.MethodGet, "/workflows/"+workflow.ID.String()+"/logs", nil)
	c.Params = gin.Params{{Key: "id", Value: workflow.ID.String()}}

	handler.ListLogsHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.ListLogsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data, 1)
	assert.Equal(t, "failed", response.Data[0].Outcome)
	assert.Equal(t, int64(15), response.Data[0].DurationMs)
}

func TestAutomationHandler_ExecuteHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		workflow := sampleWorkflow()
		log := automationDomain.NewAutomationLog(workflow, "payment.confirmed", nil, nil, 0, workflow.CreatedAt)
		mockUseCase.On("Execute", mock.Anything, "payment.confirmed", map[string]any{"orderId": "abc"}).
			Return([]*automationDomain.AutomationLog{log}, nil).Once()

		c, w := createTestContext(http.MethodPost, "/automation/execute", map[string]any{
			"triggerEvent": "payment.confirmed",
			"triggerData":  map[string]any{"orderId": "abc"},
		})

		handler.ExecuteHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.ExecuteResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 1, response.Executed)
		assert.Equal(t, "success", response.Logs[0].Outcome)
	})

	t.Run("Error_MissingEvent", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/automation/execute", map[string]any{})

		handler.ExecuteHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_UseCaseFails", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("Execute", mock.Anything, "payment.confirmed", map[string]any(nil)).
			Return(nil, errors.New("db down")).Once()

		c, w := createTestContext(http.MethodPost, "/automation/execute", map[string]any{
			"triggerEvent": "payment.confirmed",
		})

		handler.ExecuteHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestAutomationHandler_StatisticsHandler(t *testing.T) {
	handler, mockUseCase := setupTestHandler(t)
	mockUseCase.On("Statistics", mock.Anything).Return(&automationDomain.Statistics{
		TotalWorkflows:  2,
		ActiveWorkflows: 1,
		TotalExecutions: 7,
		ByOutcome: []automationDomain.OutcomeStatistics{
			{Outcome: automationDomain.OutcomeSuccess, Count: 6, AvgDurationMs: 12.5},
		},
	}, nil).Once()

	c, w := createTestContext(http.MethodGet, "/automation/statistics", nil)

	handler.StatisticsHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.StatisticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(7), response.TotalExecutions)
	assert.Equal(t, 12.5, response.ByOutcome[0].AvgDurationMs)
	assert.Empty(t, response.TopWorkflows)
}

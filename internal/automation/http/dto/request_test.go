package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
)

func validCreateRequest() CreateWorkflowRequest {
	return CreateWorkflowRequest{
		Name:         "deliver credentials",
		TriggerEvent: "payment.confirmed",
		Actions:      []ActionRequest{{Type: "assign_credentials"}},
		Priority:     10,
	}
}

func TestCreateWorkflowRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *CreateWorkflowRequest)
		wantErr string
	}{
		{name: "Success", mutate: func(r *CreateWorkflowRequest) {}},
		{name: "Error_BlankName", mutate: func(r *CreateWorkflowRequest) { r.Name = "  " }, wantErr: "name"},
		{name: "Error_MissingTrigger", mutate: func(r *CreateWorkflowRequest) { r.TriggerEvent = "" }, wantErr: "triggerEvent"},
		{
			name:    "Error_TriggerWithSpaces",
			mutate:  func(r *CreateWorkflowRequest) { r.TriggerEvent = " payment.confirmed" },
			wantErr: "triggerEvent",
		},
		{name: "Error_NoActions", mutate: func(r *CreateWorkflowRequest) { r.Actions = nil }, wantErr: "actions"},
		{name: "Error_PriorityOutOfRange", mutate: func(r *CreateWorkflowRequest) { r.Priority = 5000 }, wantErr: "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCreateWorkflowRequest_ToInput(t *testing.T) {
	t.Run("Success_ActiveByDefault", func(t *testing.T) {
		req := validCreateRequest()
		req.Actions = append(req.Actions, ActionRequest{
			Type:   "notification",
			Params: map[string]any{"channel": "email", "template": "t"},
		})

		input := req.ToInput()

		assert.True(t, input.Active)
		assert.Equal(t, "payment.confirmed", input.TriggerEvent)
		assert.Len(t, input.Actions, 2)
		assert.Equal(t, automationDomain.ActionNotification, input.Actions[1].Type)
		assert.Equal(t, "email", input.Actions[1].Params["channel"])
	})

	t.Run("Success_ExplicitInactive", func(t *testing.T) {
		req := validCreateRequest()
		inactive := false
		req.Active = &inactive

		assert.False(t, req.ToInput().Active)
	})
}

func TestExecuteRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ExecuteRequest{TriggerEvent: "payment.confirmed"}).Validate())
	assert.Error(t, (&ExecuteRequest{TriggerEvent: " "}).Validate())
	assert.Error(t, (&ExecuteRequest{}).Validate())
}

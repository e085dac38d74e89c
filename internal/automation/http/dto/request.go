// Package dto provides data transfer objects for workflow admin requests and responses.
package dto

import (
	validation "github.com/jellydator/validation"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	automationUseCase "github.com/cuenty/fulfillment/internal/automation/usecase"
	customValidation "github.com/cuenty/fulfillment/internal/validation"
)

// ActionRequest is one step of a workflow. Params are checked against the schema of
// Type by the use case.
type ActionRequest struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// CreateWorkflowRequest describes a new workflow. Active defaults to true.
type CreateWorkflowRequest struct {
	Name              string          `json:"name"`
	TriggerEvent      string          `json:"triggerEvent"`
	TriggerConditions map[string]any  `json:"triggerConditions,omitempty"`
	Actions           []ActionRequest `json:"actions"`
	Priority          int             `json:"priority"`
	Active            *bool           `json:"active,omitempty"`
}

// Validate checks the request shape.
func (r *CreateWorkflowRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.TriggerEvent,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 100),
		),
		validation.Field(&r.Actions, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Priority, validation.Min(-1000), validation.Max(1000)),
	)
}

// ToInput converts the request to a use case input.
func (r *CreateWorkflowRequest) ToInput() automationUseCase.CreateWorkflowInput {
	actions := make([]automationDomain.Action, 0, len(r.Actions))
	for _, a := range r.Actions {
		actions = append(actions, automationDomain.Action{
			Type:   automationDomain.ActionType(a.Type),
			Params: a.Params,
		})
	}

	active := true
	if r.Active != nil {
		active = *r.Active
	}

	return automationUseCase.CreateWorkflowInput{
		Name:              r.Name,
		TriggerEvent:      r.TriggerEvent,
		TriggerConditions: r.TriggerConditions,
		Actions:           actions,
		Priority:          r.Priority,
		Active:            active,
	}
}

// ToggleWorkflowRequest sets the active flag. An empty body flips it.
type ToggleWorkflowRequest struct {
	Active *bool `json:"active,omitempty"`
}

// ExecuteRequest fires an event by hand.
type ExecuteRequest struct {
	TriggerEvent string         `json:"triggerEvent"`
	TriggerData  map[string]any `json:"triggerData"`
}

// Validate checks if the execute request is valid.
func (r *ExecuteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.TriggerEvent,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 100),
		),
	)
}

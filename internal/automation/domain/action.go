package domain

import (
	validation "github.com/jellydator/validation"

	notificationDomain "github.com/cuenty/fulfillment/internal/notification/domain"
	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	taxDomain "github.com/cuenty/fulfillment/internal/tax/domain"
)

// ActionType tags an action variant.
type ActionType string

const (
	ActionNotification      ActionType = "notification"
	ActionUpdateOrder       ActionType = "update_order"
	ActionAssignCredentials ActionType = "assign_credentials"
	ActionActivateOrder     ActionType = "activate_order"
	ActionValidateTaxID     ActionType = "validate_tax_id"
	ActionApplyTax          ActionType = "apply_tax"
)

// Action is one step of a workflow. Params has a fixed shape per Type, checked by
// Validate when the workflow is created.
type Action struct {
	Type   ActionType     `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// Parameter names.
const (
	ParamChannel            = "channel"
	ParamTemplate           = "template"
	ParamRecipient          = "recipient"
	ParamMessage            = "message"
	ParamIncludeCredentials = "include_credentials"
	ParamEvent              = "event"
	ParamState              = "state"
	ParamField              = "field"
	ParamRate               = "rate"
)

// DefaultTaxIDField is the payload key validate_tax_id reads by default.
const DefaultTaxIDField = "rfc"

var isString = validation.By(func(value any) error {
	if value == nil {
		return nil
	}
	if _, ok := value.(string); !ok {
		return validation.NewError("validation_string", "must be a string")
	}
	return nil
})

var isBool = validation.By(func(value any) error {
	if value == nil {
		return nil
	}
	if _, ok := value.(bool); !ok {
		return validation.NewError("validation_bool", "must be a boolean")
	}
	return nil
})

var isRate = validation.By(func(value any) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_rate", "must be a decimal string")
	}
	if _, err := taxDomain.ParseRate(s); err != nil {
		return validation.NewError("validation_rate", "must be between 0 and 1")
	}
	return nil
})

var paramSchemas = map[ActionType]validation.MapRule{
	ActionNotification: validation.Map(
		validation.Key(ParamChannel, validation.Required, isString, validation.In(
			string(notificationDomain.ChannelSMS),
			string(notificationDomain.ChannelWhatsApp),
			string(notificationDomain.ChannelEmail),
		)),
		validation.Key(ParamTemplate, validation.Required, isString),
		validation.Key(ParamRecipient, isString).Optional(),
		validation.Key(ParamMessage, isString).Optional(),
		validation.Key(ParamIncludeCredentials, isBool).Optional(),
	),
	ActionUpdateOrder: validation.Map(
		validation.Key(ParamEvent, validation.Required, isString, validation.In(
			string(orderDomain.EventFulfillmentStarted),
			string(orderDomain.EventCredentialsDelivered),
			string(orderDomain.EventCancel),
		)),
	),
	ActionAssignCredentials: validation.Map(),
	ActionActivateOrder: validation.Map(
		validation.Key(ParamState, validation.Required, isString, validation.In(
			string(orderDomain.StateProcessing),
			string(orderDomain.StateDelivered),
		)),
	),
	ActionValidateTaxID: validation.Map(
		validation.Key(ParamField, validation.Required, isString).Optional(),
	),
	ActionApplyTax: validation.Map(
		validation.Key(ParamRate, validation.Required, isRate).Optional(),
	),
}

// IsValid reports whether t is a known action type.
func (t ActionType) IsValid() bool {
	_, ok := paramSchemas[t]
	return ok
}

// Validate checks the action type and its parameters. Unknown parameters are rejected.
func (a Action) Validate() error {
	schema, ok := paramSchemas[a.Type]
	if !ok {
		return validation.NewError("validation_action_type", "unknown action type")
	}
	params := a.Params
	if params == nil {
		params = map[string]any{}
	}
	return schema.Validate(params)
}

// StringParam returns the string parameter key, or fallback when it is absent.
func (a Action) StringParam(key, fallback string) string {
	if s, ok := a.Params[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// BoolParam returns the boolean parameter key, or false when it is absent.
func (a Action) BoolParam(key string) bool {
	b, _ := a.Params[key].(bool)
	return b
}

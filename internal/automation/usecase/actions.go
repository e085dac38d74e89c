package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
	inventoryDomain "github.com/cuenty/fulfillment/internal/inventory/domain"
	notificationDomain "github.com/cuenty/fulfillment/internal/notification/domain"
	notificationService "github.com/cuenty/fulfillment/internal/notification/service"
	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	taxDomain "github.com/cuenty/fulfillment/internal/tax/domain"
)

// NewActionExecutors builds the dispatch table of every action variant.
func NewActionExecutors(
	orders OrderService,
	credentials CredentialService,
	tax TaxService,
	deliverer notificationService.Deliverer,
	logger *slog.Logger,
) map[automationDomain.ActionType]ActionExecutor {
	return map[automationDomain.ActionType]ActionExecutor{
		automationDomain.ActionNotification: &notificationExecutor{
			orders:      orders,
			credentials: credentials,
			deliverer:   deliverer,
		},
		automationDomain.ActionUpdateOrder:       &updateOrderExecutor{orders: orders},
		automationDomain.ActionActivateOrder:     &activateOrderExecutor{orders: orders},
		automationDomain.ActionAssignCredentials: &assignCredentialsExecutor{orders: orders, credentials: credentials, logger: logger},
		automationDomain.ActionValidateTaxID:     &validateTaxIDExecutor{tax: tax},
		automationDomain.ActionApplyTax:          &applyTaxExecutor{orders: orders, tax: tax},
	}
}

func orderIDFrom(payload map[string]any) (uuid.UUID, error) {
	raw, _ := payload["orderId"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, automationDomain.ErrMissingOrderID
	}
	return id, nil
}

type notificationExecutor struct {
	orders      OrderService
	credentials CredentialService
	deliverer   notificationService.Deliverer
}

// Execute sends a templated message. The payload is passed as template variables; the
// recipient defaults to the customer email or phone of the payload.
func (e *notificationExecutor) Execute(
	ctx context.Context,
	action automationDomain.Action,
	trigger Trigger,
) (map[string]any, error) {
	channel := notificationDomain.Channel(action.StringParam(automationDomain.ParamChannel, ""))

	recipient := action.StringParam(automationDomain.ParamRecipient, "")
	if recipient == "" {
		recipient = defaultRecipient(channel, trigger.Payload)
	}

	vars := make(map[string]any, len(trigger.Payload)+3)
	for k, v := range trigger.Payload {
		vars[k] = v
	}
	vars["event"] = trigger.Event
	if message := action.StringParam(automationDomain.ParamMessage, ""); message != "" {
		vars["message"] = message
	}

	if action.BoolParam(automationDomain.ParamIncludeCredentials) {
		revealed, err := e.revealCredentials(ctx, trigger.Payload)
		if err != nil {
			return nil, err
		}
		vars["credentials"] = revealed
	}

	result, err := e.deliverer.Deliver(ctx, notificationDomain.Message{
		Channel:   channel,
		Recipient: recipient,
		Template:  action.StringParam(automationDomain.ParamTemplate, ""),
		Vars:      vars,
	})
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, automationDomain.ErrDeliveryFailed
	}

	return map[string]any{
		"channel":           string(channel),
		"providerMessageId": result.ProviderMessageID,
	}, nil
}

func (e *notificationExecutor) revealCredentials(
	ctx context.Context,
	payload map[string]any,
) ([]map[string]any, error) {
	orderID, err := orderIDFrom(payload)
	if err != nil {
		return nil, err
	}
	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var revealed []map[string]any
	for _, item := range order.Items {
		if item.CredentialID == nil {
			continue
		}
		credential, err := e.credentials.Reveal(ctx, *item.CredentialID)
		if err != nil {
			return nil, err
		}
		revealed = append(revealed, map[string]any{
			"serviceId": credential.ServiceID,
			"planId":    credential.PlanID,
			"username":  credential.Username,
			"password":  credential.Password,
		})
	}
	return revealed, nil
}

func defaultRecipient(channel notificationDomain.Channel, payload map[string]any) string {
	key := "customerPhone"
	if channel == notificationDomain.ChannelEmail {
		key = "customerEmail"
	}
	recipient, _ := payload[key].(string)
	return recipient
}

type updateOrderExecutor struct {
	orders OrderService
}

// Execute applies the configured order event.
func (e *updateOrderExecutor) Execute(
	ctx context.Context,
	action automationDomain.Action,
	trigger Trigger,
) (map[string]any, error) {
	orderID, err := orderIDFrom(trigger.Payload)
	if err != nil {
		return nil, err
	}

	event := orderDomain.Event(action.StringParam(automationDomain.ParamEvent, ""))
	order, err := e.orders.Transition(ctx, orderID, event)
	if err != nil {
		return nil, err
	}
	return map[string]any{"orderState": string(order.State)}, nil
}

type activateOrderExecutor struct {
	orders OrderService
}

// Execute moves the order to the configured target state.
func (e *activateOrderExecutor) Execute(
	ctx context.Context,
	action automationDomain.Action,
	trigger Trigger,
) (map[string]any, error) {
	orderID, err := orderIDFrom(trigger.Payload)
	if err != nil {
		return nil, err
	}

	target := orderDomain.State(action.StringParam(automationDomain.ParamState, ""))
	event, ok := orderDomain.EventFor(target)
	if !ok {
		return nil, orderDomain.ErrInvalidOrderTransition
	}

	order, err := e.orders.Transition(ctx, orderID, event)
	if err != nil {
		return nil, err
	}
	return map[string]any{"orderState": string(order.State)}, nil
}

type assignCredentialsExecutor struct {
	orders      OrderService
	credentials CredentialService
	logger      *slog.Logger
}

// Execute claims one credential for every item still without one. An item assigned by a
// concurrent execution is skipped; the unique credential slot of the item guarantees
// it is never assigned twice.
func (e *assignCredentialsExecutor) Execute(
	ctx context.Context,
	_ automationDomain.Action,
	trigger Trigger,
) (map[string]any, error) {
	orderID, err := orderIDFrom(trigger.Payload)
	if err != nil {
		return nil, err
	}
	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	assigned, skipped, missing := 0, 0, 0
	for _, item := range order.Items {
		if !item.NeedsCredential() {
			skipped++
			continue
		}

		_, err := e.credentials.ClaimAvailable(ctx, item.ServiceID, item.PlanID, item.ID)
		switch {
		case err == nil:
			assigned++
		case apperrors.Is(err, orderDomain.ErrItemAlreadyAssigned):
			skipped++
		case apperrors.Is(err, inventoryDomain.ErrNoneAvailable):
			missing++
		default:
			return map[string]any{"assigned": assigned, "skipped": skipped, "missing": missing}, err
		}
	}

	output := map[string]any{"assigned": assigned, "skipped": skipped, "missing": missing}
	if missing > 0 {
		e.logger.WarnContext(ctx, "order left without credentials",
			slog.String("order_id", orderID.String()),
			slog.Int("missing", missing),
		)
		return output, automationDomain.ErrCredentialsExhausted
	}
	return output, nil
}

type validateTaxIDExecutor struct {
	tax TaxService
}

// Execute validates the RFC read from the configured payload field.
func (e *validateTaxIDExecutor) Execute(
	ctx context.Context,
	action automationDomain.Action,
	trigger Trigger,
) (map[string]any, error) {
	orderID, err := orderIDFrom(trigger.Payload)
	if err != nil {
		return nil, err
	}

	field := action.StringParam(automationDomain.ParamField, automationDomain.DefaultTaxIDField)
	rfc, _ := trigger.Payload[field].(string)

	profile, err := e.tax.ValidateRFC(ctx, orderID, rfc)
	if err != nil {
		if profile != nil {
			return map[string]any{"rfc": profile.RFC, "valid": false}, err
		}
		return nil, err
	}
	return map[string]any{
		"rfc":        profile.RFC,
		"personType": profile.PersonType,
		"valid":      true,
	}, nil
}

type applyTaxExecutor struct {
	orders OrderService
	tax    TaxService
}

// Execute records the IVA breakdown of the order total. Applying twice keeps the first
// entry.
func (e *applyTaxExecutor) Execute(
	ctx context.Context,
	action automationDomain.Action,
	trigger Trigger,
) (map[string]any, error) {
	orderID, err := orderIDFrom(trigger.Payload)
	if err != nil {
		return nil, err
	}

	rate, err := taxDomain.ParseRate(action.StringParam(automationDomain.ParamRate, ""))
	if err != nil {
		return nil, err
	}

	order, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	entry, applied, err := e.tax.ApplyTax(ctx, orderID, order.Total, order.Currency, rate)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"base":    entry.Base.StringFixed(2),
		"tax":     entry.Tax.StringFixed(2),
		"rate":    entry.Rate.String(),
		"applied": applied,
	}, nil
}

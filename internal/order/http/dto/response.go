package dto

import (
	"time"

	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
)

// ItemResponse represents an order item. Credentials are never returned here.
type ItemResponse struct {
	ID         string     `json:"id"`
	ServiceID  string     `json:"service_id"`
	PlanID     string     `json:"plan_id"`
	UnitPrice  string     `json:"unit_price"`
	Assigned   bool       `json:"assigned"`
	AssignedAt *time.Time `json:"assigned_at,omitempty"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID            string         `json:"id"`
	CustomerEmail string         `json:"customer_email"`
	CustomerPhone string         `json:"customer_phone,omitempty"`
	RFC           string         `json:"rfc,omitempty"`
	State         string         `json:"state"`
	Total         string         `json:"total"`
	Currency      string         `json:"currency"`
	Items         []ItemResponse `json:"items"`
	PaidAt        *time.Time     `json:"paid_at,omitempty"`
	DeliveredAt   *time.Time     `json:"delivered_at,omitempty"`
	CancelledAt   *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// MapOrderToResponse converts a domain order to an API response.
func MapOrderToResponse(order *orderDomain.Order) OrderResponse {
	items := make([]ItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemResponse{
			ID:         item.ID.String(),
			ServiceID:  item.ServiceID,
			PlanID:     item.PlanID,
			UnitPrice:  item.UnitPrice.StringFixed(2),
			Assigned:   item.CredentialID != nil,
			AssignedAt: item.AssignedAt,
		})
	}

	return OrderResponse{
		ID:            order.ID.String(),
		CustomerEmail: order.CustomerEmail,
		CustomerPhone: order.CustomerPhone,
		RFC:           order.RFC,
		State:         string(order.State),
		Total:         order.Total.StringFixed(2),
		Currency:      order.Currency,
		Items:         items,
		PaidAt:        order.PaidAt,
		DeliveredAt:   order.DeliveredAt,
		CancelledAt:   order.CancelledAt,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

// Package http provides HTTP handlers for order administration.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuenty/fulfillment/internal/httputil"
	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	"github.com/cuenty/fulfillment/internal/order/http/dto"
	orderUseCase "github.com/cuenty/fulfillment/internal/order/usecase"
	customValidation "github.com/cuenty/fulfillment/internal/validation"
)

// OrderCanceller cancels an order together with its pending payment transactions.
type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*orderDomain.Order, error)
}

// OrderHandler handles order requests.
type OrderHandler struct {
	orderUseCase orderUseCase.OrderUseCase
	canceller    OrderCanceller
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(
	orderUseCase orderUseCase.OrderUseCase,
	canceller OrderCanceller,
	logger *slog.Logger,
) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
		canceller:    canceller,
		logger:       logger,
	}
}

// CreateOrderHandler places a new order in the pending state.
// POST /orders
// Returns 201 Created with the order.
func (h *OrderHandler) CreateOrderHandler(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	order, err := h.orderUseCase.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapOrderToResponse(order))
}

// GetOrderHandler retrieves an order with its items.
// GET /orders/:id
func (h *OrderHandler) GetOrderHandler(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	order, err := h.orderUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrderToResponse(order))
}

// CancelOrderHandler cancels an order that has not been delivered yet.
// POST /orders/:id/cancel
// Returns 409 Conflict when the order is already delivered or cancelled.
func (h *OrderHandler) CancelOrderHandler(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	order, err := h.canceller.CancelOrder(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrderToResponse(order))
}

func (h *OrderHandler) orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid order id"), h.logger)
		return uuid.Nil, false
	}
	return id, true
}

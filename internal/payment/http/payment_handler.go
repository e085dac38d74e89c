// Package http provides HTTP handlers for checkout and payment transaction administration.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuenty/fulfillment/internal/httputil"
	paymentDomain "github.com/cuenty/fulfillment/internal/payment/domain"
	"github.com/cuenty/fulfillment/internal/payment/http/dto"
	paymentUseCase "github.com/cuenty/fulfillment/internal/payment/usecase"
	customValidation "github.com/cuenty/fulfillment/internal/validation"
)

// PaymentHandler handles checkout and transaction administration requests.
type PaymentHandler struct {
	paymentUseCase paymentUseCase.PaymentUseCase
	logger         *slog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(paymentUseCase paymentUseCase.PaymentUseCase, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentUseCase: paymentUseCase,
		logger:         logger,
	}
}

// CheckoutHandler creates a payment transaction for an order.
// POST /orders/:id/payments
// Returns 201 Created with the reference and account details.
func (h *PaymentHandler) CheckoutHandler(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid order id"), h.logger)
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	checkout, err := h.paymentUseCase.CreateTransaction(c.Request.Context(), paymentUseCase.CreateTransactionInput{
		OrderID: orderID,
		Amount:  req.ParsedAmount(),
		Method:  paymentDomain.Method(req.Method),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapCheckoutToResponse(checkout))
}

// GetTransactionHandler retrieves a transaction by reference.
// GET /payments/transactions/:reference
func (h *PaymentHandler) GetTransactionHandler(c *gin.Context) {
	txn, err := h.paymentUseCase.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTransactionToResponse(txn))
}

// ListTransactionsHandler lists transactions with optional state and method filters.
// GET /payments/transactions?state=completed&method=spei&offset=0&limit=50
func (h *PaymentHandler) ListTransactionsHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	filter := paymentDomain.ListFilter{
		State:  paymentDomain.State(c.Query("state")),
		Method: paymentDomain.Method(c.Query("method")),
		Offset: offset,
		Limit:  limit,
	}

	if filter.State != "" && !filter.State.IsValid() {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid state parameter"), h.logger)
		return
	}
	if filter.Method != "" && !filter.Method.IsValid() {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid method parameter"), h.logger)
		return
	}

	txns, err := h.paymentUseCase.List(c.Request.Context(), filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTransactionsToListResponse(txns))
}

// CancelTransactionHandler cancels a pending transaction.
// POST /payments/transactions/:reference/cancel
func (h *PaymentHandler) CancelTransactionHandler(c *gin.Context) {
	var req dto.CancelTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	txn, err := h.paymentUseCase.Cancel(c.Request.Context(), c.Param("reference"), req.Reason)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTransactionToResponse(txn))
}

// StatisticsHandler summarizes transactions.
// GET /payments/statistics?method=spei&from=2026-01-01T00:00:00Z&to=2026-02-01T00:00:00Z
func (h *PaymentHandler) StatisticsHandler(c *gin.Context) {
	filter := paymentDomain.StatisticsFilter{
		Method: paymentDomain.Method(c.Query("method")),
	}
	if filter.Method != "" && !filter.Method.IsValid() {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid method parameter"), h.logger)
		return
	}

	var err error
	if filter.From, err = parseTimeQuery(c, "from"); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if filter.To, err = parseTimeQuery(c, "to"); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	stats, err := h.paymentUseCase.Statistics(c.Request.Context(), filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatisticsToResponse(stats))
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	value := c.Query(key)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s parameter: must be RFC3339", key)
	}
	return &t, nil
}

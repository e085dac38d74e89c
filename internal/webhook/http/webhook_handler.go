// Package http provides the payment provider webhook endpoint.
package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/cuenty/fulfillment/internal/errors"
	"github.com/cuenty/fulfillment/internal/httputil"
	webhookDomain "github.com/cuenty/fulfillment/internal/webhook/domain"
	webhookUseCase "github.com/cuenty/fulfillment/internal/webhook/usecase"
)

// maxPayloadBytes bounds the stored provider payload.
const maxPayloadBytes = 64 << 10

// Enqueuer hands accepted events to background processing.
type Enqueuer interface {
	Enqueue(id uuid.UUID) bool
}

// AcceptedResponse acknowledges a durably recorded webhook.
type AcceptedResponse struct {
	Accepted bool      `json:"accepted"`
	EventID  uuid.UUID `json:"eventId"`
}

// WebhookHandler receives payment provider callbacks.
type WebhookHandler struct {
	webhookUseCase webhookUseCase.WebhookUseCase
	dispatcher     Enqueuer
	logger         *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(
	webhookUseCase webhookUseCase.WebhookUseCase,
	dispatcher Enqueuer,
	logger *slog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		webhookUseCase: webhookUseCase,
		dispatcher:     dispatcher,
		logger:         logger,
	}
}

// ReceiveHandler records a provider callback and acknowledges it before processing.
// POST /payments/webhook
// Returns 200 once the event is stored, or 400 when the payload carries no reference.
func (h *WebhookHandler) ReceiveHandler(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes+1))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("failed to read payload: %w", err), h.logger)
		return
	}
	if len(payload) > maxPayloadBytes {
		httputil.HandleBadRequestGin(c, fmt.Errorf("payload exceeds %d bytes", maxPayloadBytes), h.logger)
		return
	}

	event, err := h.webhookUseCase.Ingest(c.Request.Context(), webhookUseCase.IngestInput{
		Payload:   payload,
		SourceIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if apperrors.Is(err, webhookDomain.ErrMalformedWebhook) {
		body := gin.H{
			"error":   "malformed_webhook",
			"message": "payload must include a reference or order id",
		}
		if event != nil {
			body["eventId"] = event.ID
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if !event.Processed {
		h.dispatcher.Enqueue(event.ID)
	}

	c.JSON(http.StatusOK, AcceptedResponse{Accepted: true, EventID: event.ID})
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sendarcade/squadgames/internal/domain"
	"github.com/sendarcade/squadgames/internal/service"
)

// WebhookProcessor ingests a batch of chain-transaction events.
type WebhookProcessor interface {
	ProcessBatch(ctx context.Context, events []domain.TransactionEvent) service.BatchSummary
}

// WebhookHandler receives chain-transaction-event notifications from the
// webhook provider.
type WebhookHandler struct {
	ingestor WebhookProcessor
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(ingestor WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{ingestor: ingestor}
}

// Receive godoc
// POST /api/webhook
// Body: array of transaction-event objects.
//
// Always responds 200 on best-effort processing — the provider redelivers on
// anything else, and per-event problems are already absorbed by the ingestor.
// 500 is reserved for a top-level parse failure.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var events []domain.TransactionEvent
	if err := c.ShouldBindJSON(&events); err != nil {
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.ingestor.ProcessBatch(c.Request.Context(), events)
	c.String(http.StatusOK, "OK")
}

package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/screenpro/account-server/internal/integration/paddle"
	"github.com/screenpro/account-server/internal/model"
	"github.com/screenpro/account-server/internal/pkg/queue"
	"github.com/screenpro/account-server/internal/repository"
)

// WebhookHandler ingests vendor notifications. It verifies, stores and
// enqueues; the worker does the actual state changes. Responses use
// plain HTTP statuses, the vendor retries on anything but 2xx.
type WebhookHandler struct {
	eventRepo     *repository.WebhookEventRepository
	webhookQueue  *queue.Queue
	webhookSecret string
}

func NewWebhookHandler(eventRepo *repository.WebhookEventRepository, webhookQueue *queue.Queue, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		eventRepo:     eventRepo,
		webhookQueue:  webhookQueue,
		webhookSecret: webhookSecret,
	}
}

// HandlePaddle receives a Paddle webhook.
// POST /api/v1/webhooks/paddle
func (h *WebhookHandler) HandlePaddle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "failed to read body")
		return
	}

	signature := c.GetHeader("Paddle-Signature")
	if err := paddle.VerifyWebhookSignature(h.webhookSecret, signature, body); err != nil {
		c.String(http.StatusUnauthorized, "invalid signature")
		return
	}

	evt, err := paddle.ParseWebhookEvent(body)
	if err != nil {
		c.String(http.StatusBadRequest, "malformed event")
		return
	}

	record := &model.WebhookEvent{
		EventID:   evt.EventID,
		EventType: evt.EventType,
		Payload:   string(body),
		Status:    model.WebhookStatusPending,
	}
	if err := h.eventRepo.Record(record); err != nil {
		if errors.Is(err, repository.ErrDuplicateEvent) {
			// Redelivery of an event we already hold
			c.String(http.StatusOK, "ok")
			return
		}
		c.String(http.StatusInternalServerError, "failed to store event")
		return
	}

	msg := &queue.WebhookMessage{EventID: evt.EventID, EventType: evt.EventType}
	if err := h.webhookQueue.Push(c.Request.Context(), msg); err != nil {
		// The row exists; the cleanup job or a manual requeue can
		// recover it. Fail the delivery so the vendor retries.
		log.Printf("HandlePaddle: failed to enqueue event %s: %v", evt.EventID, err)
		c.String(http.StatusInternalServerError, "failed to enqueue event")
		return
	}

	c.String(http.StatusOK, "ok")
}

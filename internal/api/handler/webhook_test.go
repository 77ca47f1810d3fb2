package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenpro/account-server/internal/model"
	"github.com/screenpro/account-server/internal/pkg/queue"
	"github.com/screenpro/account-server/internal/repository"
	"github.com/screenpro/account-server/internal/testutil"
)

const testWebhookSecret = "whsec_test"

func signWebhook(secret string, body []byte) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + ":" + string(body)))
	return "ts=" + ts + ";h1=" + hex.EncodeToString(mac.Sum(nil))
}

func setupWebhookHandler(t *testing.T) (*WebhookHandler, *repository.WebhookEventRepository, *queue.Queue, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	eventRepo := repository.NewWebhookEventRepository(db)
	webhookQueue := queue.NewQueue(rdb, "webhook_events_test")
	handler := NewWebhookHandler(eventRepo, webhookQueue, testWebhookSecret)

	cleanup := func() {
		rdb.Close()
		mr.Close()
		testutil.CleanupTestDB(t, db)
	}
	return handler, eventRepo, webhookQueue, cleanup
}

func postWebhook(router http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/webhooks/paddle", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Paddle-Signature", signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookHandler_StoresAndEnqueues(t *testing.T) {
	handler, eventRepo, webhookQueue, cleanup := setupWebhookHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/webhooks/paddle", handler.HandlePaddle)

	body := []byte(`{"event_id": "evt_100", "event_type": "subscription.updated", "occurred_at": "2026-08-10T12:00:00Z", "data": {"id": "sub_1"}}`)
	w := postWebhook(router, body, signWebhook(testWebhookSecret, body))

	assert.Equal(t, http.StatusOK, w.Code)

	event, err := eventRepo.GetByEventID("evt_100")
	require.NoError(t, err)
	assert.Equal(t, model.WebhookStatusPending, event.Status)
	assert.Equal(t, "subscription.updated", event.EventType)
	assert.JSONEq(t, string(body), event.Payload)

	depth, err := webhookQueue.Length(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)

	msg, err := webhookQueue.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "evt_100", msg.EventID)
	assert.Equal(t, "subscription.updated", msg.EventType)
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	handler, eventRepo, _, cleanup := setupWebhookHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/webhooks/paddle", handler.HandlePaddle)

	body := []byte(`{"event_id": "evt_101", "event_type": "subscription.updated", "data": {}}`)
	w := postWebhook(router, body, signWebhook("wrong-secret", body))

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, err := eventRepo.GetByEventID("evt_101")
	assert.Error(t, err)
}

func TestWebhookHandler_MissingSignature(t *testing.T) {
	handler, _, _, cleanup := setupWebhookHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/webhooks/paddle", handler.HandlePaddle)

	body := []byte(`{"event_id": "evt_102", "event_type": "subscription.updated", "data": {}}`)
	w := postWebhook(router, body, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookHandler_DuplicateDelivery(t *testing.T) {
	handler, _, webhookQueue, cleanup := setupWebhookHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/webhooks/paddle", handler.HandlePaddle)

	body := []byte(`{"event_id": "evt_103", "event_type": "subscription.created", "occurred_at": "2026-08-10T12:00:00Z", "data": {"id": "sub_1"}}`)

	w := postWebhook(router, body, signWebhook(testWebhookSecret, body))
	assert.Equal(t, http.StatusOK, w.Code)

	// Redelivery acknowledges without enqueueing again
	w = postWebhook(router, body, signWebhook(testWebhookSecret, body))
	assert.Equal(t, http.StatusOK, w.Code)

	depth, err := webhookQueue.Length(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)
}

func TestWebhookHandler_MalformedBody(t *testing.T) {
	handler, _, _, cleanup := setupWebhookHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/webhooks/paddle", handler.HandlePaddle)

	body := []byte(`not json`)
	w := postWebhook(router, body, signWebhook(testWebhookSecret, body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
